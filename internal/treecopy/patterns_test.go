package treecopy

import "testing"

func TestPatternSetMatch(t *testing.T) {
	patterns := DefaultPatternSet()
	testCases := []struct {
		path            string
		expected        Category
		expectedPattern string
	}{
		{path: "engine/build/default/libdlib.a", expected: CategoryLocalArtifact, expectedPattern: "build/"},
		{path: ".git/config", expected: CategoryLocalArtifact, expectedPattern: ".git/"},
		{path: "scripts/mod.pyc", expected: CategoryLocalArtifact, expectedPattern: ".pyc"},
		{path: "tmp/dynamo_home/lib/libengine.a", expected: CategoryLocalArtifact, expectedPattern: "dynamo_home"},
		{path: "engine/dlib/src/nx64/socket.cpp", expected: CategoryPrivatePlatform, expectedPattern: "nx64"},
		{path: "engine/dlib/src/NX64/socket.cpp", expected: CategoryPrivatePlatform, expectedPattern: "NX64"},
		{path: "engine/sound/src/devices/device_ps4.cpp", expected: CategoryPrivatePlatform, expectedPattern: "ps4"},
		{path: "ci/private.yml", expected: CategoryPrivateFile, expectedPattern: "private.yml"},
		{path: "engine/engine/content/builtins/manifests/web/engine.appmanifest", expected: CategoryPrivateFile, expectedPattern: ".appmanifest"},
		{path: "com.dynamo.cr/com.dynamo.cr.bob/src/Bob.java", expected: CategoryPrivateFile, expectedPattern: "com.dynamo.cr.bob"},
		{path: `engine\build\out.o`, expected: CategoryLocalArtifact, expectedPattern: "build/"},
		{path: "engine/dlib/src/dlib/socket.cpp", expected: CategoryNone},
		{path: "engine/Nx64/readme.md", expected: CategoryNone},
		{path: "README.md", expected: CategoryNone},
	}
	for _, testCase := range testCases {
		t.Run(testCase.path, func(t *testing.T) {
			category, pattern := patterns.Match(testCase.path)
			if category != testCase.expected {
				t.Fatalf("expected %s, got %s (pattern %q)", testCase.expected, category, pattern)
			}
			if pattern != testCase.expectedPattern {
				t.Fatalf("expected pattern %q, got %q", testCase.expectedPattern, pattern)
			}
		})
	}
}

func TestLocalArtifactsTakePrecedence(t *testing.T) {
	category, _ := DefaultPatternSet().Match("engine/build/nx64/private.py")
	if category != CategoryLocalArtifact {
		t.Fatalf("expected local artifact to win, got %s", category)
	}
}

func TestNewPatternSetAddsExtras(t *testing.T) {
	patterns := NewPatternSet([]string{"node_modules/"}, []string{"Xbox"}, []string{"secrets.json", "private.py"})
	testCases := map[string]Category{
		"editor/node_modules/a.js":    CategoryLocalArtifact,
		"engine/src/xbox/device.cpp":  CategoryPrivatePlatform,
		"engine/src/XBOX/device.cpp":  CategoryPrivatePlatform,
		"config/secrets.json":         CategoryPrivateFile,
		"engine/src/Xbox/device.cpp":  CategoryNone,
		"engine/src/generic/device.c": CategoryNone,
	}
	for path, expected := range testCases {
		if category, _ := patterns.Match(path); category != expected {
			t.Fatalf("%s: expected %s, got %s", path, expected, category)
		}
	}
	occurrences := 0
	for _, pattern := range patterns.PrivateFiles {
		if pattern == "private.py" {
			occurrences++
		}
	}
	if occurrences != 1 {
		t.Fatalf("expected duplicate extra pattern to be dropped, found %d", occurrences)
	}
}
