package format

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ErrJavaNotFound is returned when no java executable can be located.
var ErrJavaNotFound = errors.New("java not found: install a JRE or set JAVA_HOME")

func javaExecutable() string {
	if runtime.GOOS == "windows" {
		return "java.exe"
	}
	return "java"
}

// LocateJava prefers $JAVA_HOME/bin/java and falls back to PATH.
func LocateJava() (string, error) {
	if home := os.Getenv("JAVA_HOME"); home != "" {
		candidate := filepath.Join(home, "bin", javaExecutable())
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	path, err := exec.LookPath(javaExecutable())
	if err != nil {
		return "", ErrJavaNotFound
	}
	return path, nil
}
