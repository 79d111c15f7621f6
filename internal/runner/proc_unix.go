//go:build !windows

package runner

import "syscall"

// sysProcAttr puts the child in its own process group.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// killProcess signals the child's whole process group.
func killProcess(pid int) error {
	return syscall.Kill(-pid, syscall.SIGKILL)
}

const exeSuffix = ""
