package main

import (
	"os"
	"path/filepath"
)

const healthscanDir = ".healthscan"

func resolveWorkspace() (string, error) {
	if workspace == "" {
		return os.Getwd()
	}
	return filepath.Abs(workspace)
}

func statePath(ws string) string  { return filepath.Join(ws, healthscanDir, "state.json") }
func planPath(ws string) string   { return filepath.Join(ws, healthscanDir, "plan.json") }
func lockPath(ws string) string   { return filepath.Join(ws, healthscanDir, "scan.lock") }
func defaultConfigPath(ws string) string {
	return filepath.Join(ws, healthscanDir, "config.toml")
}

func resolveConfigPath(ws string) string {
	if cfgPath != "" {
		return cfgPath
	}
	return defaultConfigPath(ws)
}
