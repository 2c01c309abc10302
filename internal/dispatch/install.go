package dispatch

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/engineci/internal/execution"
)

const (
	sudoExecutable     = "sudo"
	securityExecutable = "security"

	keychainName     = "defold.keychain"
	keychainPassword = "foobar"

	credentialsDirectory       = "ci"
	keychainCertificateFile    = "cert.p12"
	windowsCertificateFile     = "windows_cert.pfx"
	windowsCertificatePassFile = "windows_cert.pass"
	credentialFilePermissions  = 0o600

	installingMessage          = "Installing dependencies"
	keychainSetupMessage       = "Setting up keychain"
	keychainDoneMessage        = "Done with keychain setup"
	windowsCertificateMessage  = "Wrote certificate"
	dryRunSkipWriteMessage     = "dry run, not writing"
	decodeCertificateFormat    = "decode %s certificate: %w"
	writeCredentialFileFormat  = "write %s: %w"
	createCredentialsDirFormat = "create %s: %w"
)

// linuxPackages are installed with apt-fast on Linux hosts.
var linuxPackages = []string{
	"libssl-dev",
	"openssl",
	"libtool",
	"autoconf",
	"automake",
	"build-essential",
	"uuid-dev",
	"libxi-dev",
	"libopenal-dev",
	"libgl1-mesa-dev",
	"libglw1-mesa-dev",
	"freeglut3-dev",
	"tofrodos",
	"tree",
	"valgrind",
	"lib32z1",
	"xvfb",
}

// aptFastSelections are fed to debconf-set-selections before apt-fast is installed.
var aptFastSelections = []string{
	"debconf apt-fast/maxdownloads string 16",
	"debconf apt-fast/dlflag boolean true",
	"debconf apt-fast/aptmanager string apt-get",
}

// install prepares the host: system packages on Linux, the signing keychain on macOS,
// and certificate files on Windows.
func (dispatcher *Dispatcher) install(ctx context.Context) error {
	hostOperatingSystem := dispatcher.hostOperatingSystem()
	dispatcher.logger().Info(installingMessage, zap.String("system", hostOperatingSystem))
	switch hostOperatingSystem {
	case "linux":
		return dispatcher.invoke(ctx, linuxInstallCommands()...)
	case "darwin":
		if dispatcher.Options.KeychainCert == "" {
			return nil
		}
		return dispatcher.setupKeychain(ctx)
	case "windows":
		if dispatcher.Options.WindowsCertB64 == "" {
			return nil
		}
		return dispatcher.setupWindowsCertificate()
	default:
		return nil
	}
}

func sudo(arguments ...string) execution.Command {
	return execution.Command{Executable: sudoExecutable, Arguments: arguments}
}

func linuxInstallCommands() []execution.Command {
	commands := []execution.Command{
		sudo("add-apt-repository", "ppa:apt-fast/stable"),
	}
	update := sudo("apt-get", "update")
	update.NonFatal = true
	commands = append(commands, update)
	for _, selection := range aptFastSelections {
		selectionCommand := sudo("debconf-set-selections")
		selectionCommand.Stdin = strings.NewReader(selection + "\n")
		commands = append(commands, selectionCommand)
	}
	commands = append(commands,
		sudo("apt-get", "install", "-y", "apt-fast", "aria2"),
		sudo("apt-get", "install", "-y", "software-properties-common"),
		sudo(append([]string{"apt-fast", "install", "-y", "--no-install-recommends"}, linuxPackages...)...),
		sudo("apt-get", "autoremove", "-y", "libgcc-9-dev", "gcc-9", "libgcc-10-dev", "gcc-10", "libgcc-11-dev", "gcc-11"),
		sudo("apt-get", "install", "--allow-downgrades", "--no-remove", "--reinstall", "-y", "libstdc++6=8.4.0-1ubuntu1~18.04"),
	)
	return commands
}

func security(arguments ...string) execution.Command {
	return execution.Command{Executable: securityExecutable, Arguments: arguments}
}

// setupKeychain creates an unlocked keychain, makes it the default and imports the signing certificate.
// The decoded certificate only lives on disk for the duration of the import.
func (dispatcher *Dispatcher) setupKeychain(ctx context.Context) error {
	logger := dispatcher.logger()
	logger.Info(keychainSetupMessage, zap.String("keychain", keychainName))

	certificate, decodeError := base64.StdEncoding.DecodeString(strings.TrimSpace(dispatcher.Options.KeychainCert))
	if decodeError != nil {
		return fmt.Errorf(decodeCertificateFormat, "keychain", decodeError)
	}

	if setupError := dispatcher.invoke(ctx,
		security("create-keychain", "-p", keychainPassword, keychainName),
		security("default-keychain", "-s", keychainName),
		security("unlock-keychain", "-p", keychainPassword, keychainName),
	); setupError != nil {
		return setupError
	}

	certificatePath, pathError := dispatcher.absolutePath(filepath.Join(credentialsDirectory, keychainCertificateFile))
	if pathError != nil {
		return pathError
	}
	if writeError := dispatcher.writeCredentialFile(certificatePath, certificate); writeError != nil {
		return writeError
	}
	importError := dispatcher.invoke(ctx, security("import", certificatePath, "-k", keychainName, "-P", dispatcher.Options.KeychainCertPass, "-A"))
	if !dispatcher.Options.DryRun {
		if removeError := os.Remove(certificatePath); removeError != nil && !os.IsNotExist(removeError) && importError == nil {
			importError = fmt.Errorf("remove %s: %w", certificatePath, removeError)
		}
	}
	if importError != nil {
		return importError
	}

	if finishError := dispatcher.invoke(ctx,
		security("set-key-partition-list", "-S", "apple-tool:,apple:,codesign:", "-s", "-k", keychainPassword, keychainName),
		security("set-keychain-settings", keychainName),
		security("list-keychains", "-d", "user", "-s", keychainName),
	); finishError != nil {
		return finishError
	}
	logger.Info(keychainDoneMessage)
	return nil
}

// setupWindowsCertificate writes the decoded certificate and its password below ci/.
func (dispatcher *Dispatcher) setupWindowsCertificate() error {
	certificate, decodeError := base64.StdEncoding.DecodeString(strings.TrimSpace(dispatcher.Options.WindowsCertB64))
	if decodeError != nil {
		return fmt.Errorf(decodeCertificateFormat, "windows", decodeError)
	}
	certificatePath, pathError := dispatcher.absolutePath(filepath.Join(credentialsDirectory, windowsCertificateFile))
	if pathError != nil {
		return pathError
	}
	passwordPath, pathError := dispatcher.absolutePath(filepath.Join(credentialsDirectory, windowsCertificatePassFile))
	if pathError != nil {
		return pathError
	}
	if writeError := dispatcher.writeCredentialFile(certificatePath, certificate); writeError != nil {
		return writeError
	}
	if writeError := dispatcher.writeCredentialFile(passwordPath, []byte(dispatcher.Options.WindowsCertPass)); writeError != nil {
		return writeError
	}
	dispatcher.logger().Info(windowsCertificateMessage, zap.String("certificate", certificatePath), zap.String("password_file", passwordPath))
	return nil
}

func (dispatcher *Dispatcher) writeCredentialFile(path string, content []byte) error {
	if dispatcher.Options.DryRun {
		dispatcher.logger().Info(dryRunSkipWriteMessage, zap.String("path", path))
		return nil
	}
	if mkdirError := os.MkdirAll(filepath.Dir(path), 0o755); mkdirError != nil {
		return fmt.Errorf(createCredentialsDirFormat, filepath.Dir(path), mkdirError)
	}
	if writeError := os.WriteFile(path, content, credentialFilePermissions); writeError != nil {
		return fmt.Errorf(writeCredentialFileFormat, path, writeError)
	}
	return nil
}
