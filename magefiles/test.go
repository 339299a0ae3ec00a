package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Test groups test targets (all, unit, integration).
type Test mg.Namespace

// Env vars that switch on the store adapter tests.
const (
	envMongoURI  = "TRIPDECK_TEST_MONGO_URI"
	envRedisAddr = "TRIPDECK_TEST_REDIS_ADDR"
)

// All runs every test with whatever services the environment points at.
func (Test) All() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Unit runs the tests that need no external services.
func (Test) Unit() error {
	env := map[string]string{envMongoURI: "", envRedisAddr: ""}
	return sh.RunWithV(env, binGo, "test", "-race", "./...")
}

// Integration starts the service containers and runs every test against them.
func (Test) Integration() error {
	mg.Deps(Services.Up)
	env := map[string]string{
		envMongoURI:  fmt.Sprintf("mongodb://127.0.0.1:%s", mongoPort),
		envRedisAddr: "127.0.0.1:" + redisPort,
	}
	fmt.Fprintln(os.Stderr, "Running tests against", env[envMongoURI], "and", env[envRedisAddr])
	return sh.RunWithV(env, binGo, "test", "-race", "-count=1", "./...")
}
