// Package autostart registers "mapshare serve" to start on login.
package autostart

import (
	"errors"
	"runtime"
)

var ErrUnsupported = errors.New("autostart is not supported on " + runtime.GOOS)

type AutoStarter interface {
	Install(execPath string) error
	Uninstall() error
	IsInstalled() (bool, error)
}

func New() AutoStarter {
	return forOS(runtime.GOOS)
}

func forOS(goos string) AutoStarter {
	switch goos {
	case "windows":
		return &WindowsAutoStarter{}
	case "linux":
		return &LinuxAutoStarter{}
	default:
		return &UnsupportedAutoStarter{}
	}
}

type UnsupportedAutoStarter struct{}

func (u *UnsupportedAutoStarter) Install(_ string) error {
	return ErrUnsupported
}

func (u *UnsupportedAutoStarter) Uninstall() error {
	return nil
}

func (u *UnsupportedAutoStarter) IsInstalled() (bool, error) {
	return false, nil
}
