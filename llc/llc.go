// Package llc drives the external LLVM toolchain.  The compiler emits LLVM
// IR text and hands it to `llc` and `clang` for native code generation and
// linking rather than binding LLVM's C API, which keeps the compiler itself
// free of cgo.
package llc

import (
	"fmt"
	"os/exec"
)

// FileType is the kind of output llc should produce.
type FileType int

const (
	AssemblyFile FileType = iota
	ObjectFile
)

// FindTool locates an LLVM toolchain executable on the system path.
func FindTool(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("unable to find `%s` on the system path: %w", name, err)
	}

	return path, nil
}

// CompileModule compiles the LLVM IR file at llPath into an assembly or
// object file at outputPath.  An empty targetTriple compiles for the host.
func CompileModule(llPath, outputPath string, fileType FileType, targetTriple string) error {
	llcPath, err := FindTool("llc")
	if err != nil {
		return err
	}

	args := []string{"-o", outputPath}
	if fileType == ObjectFile {
		args = append(args, "-filetype=obj")
	} else {
		args = append(args, "-filetype=asm")
	}

	if targetTriple != "" {
		args = append(args, "-mtriple="+targetTriple)
	}

	args = append(args, llPath)

	cmd := exec.Command(llcPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("llc failed: %s: %s", err, out)
	}

	return nil
}

// LinkExecutable links the given object files into an executable at
// outputPath using clang as the linker driver.
func LinkExecutable(objPaths []string, outputPath string) error {
	clangPath, err := FindTool("clang")
	if err != nil {
		return err
	}

	args := append([]string{"-o", outputPath}, objPaths...)

	cmd := exec.Command(clangPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("linking failed: %s: %s", err, out)
	}

	return nil
}
