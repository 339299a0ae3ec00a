package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Service containers for the store adapter tests.
const (
	mongoContainer = "tripdeck-mongo"
	mongoImage     = "mongo:7"
	mongoPort      = "27017"
	redisContainer = "tripdeck-redis"
	redisImage     = "redis:7-alpine"
	redisPort      = "6379"
)

// Services groups the container targets.
type Services mg.Namespace

// containerRuntime returns "podman" or "docker" if a working runtime
// is available, or "" if neither is usable. It checks both that the
// binary exists on PATH and that it can connect to its daemon/machine.
func containerRuntime() string {
	for _, name := range []string{"podman", "docker"} {
		if _, err := exec.LookPath(name); err != nil {
			continue
		}
		if exec.Command(name, "info").Run() != nil {
			fmt.Fprintf(os.Stderr, "WARNING: %s found on PATH but not usable (is the daemon/machine running?)\n", name)
			continue
		}
		return name
	}
	return ""
}

// running reports whether a container with name is up.
func running(rt, name string) bool {
	out, err := exec.Command(rt, "ps", "-q", "--filter", "name="+name).Output()
	return err == nil && len(out) > 0
}

func startContainer(rt, name, image, port string) error {
	if running(rt, name) {
		return nil
	}
	fmt.Fprintf(os.Stderr, "Starting %s (%s)...\n", name, image)
	cmd := exec.Command(rt, "run", "-d", "--rm",
		"--name", name,
		"-p", "127.0.0.1:"+port+":"+port,
		image)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Up starts Mongo and Redis containers on their default local ports.
func (Services) Up() error {
	rt := containerRuntime()
	if rt == "" {
		return fmt.Errorf("no container runtime found (tried podman, docker)")
	}
	if err := startContainer(rt, mongoContainer, mongoImage, mongoPort); err != nil {
		return fmt.Errorf("starting mongo: %w", err)
	}
	if err := startContainer(rt, redisContainer, redisImage, redisPort); err != nil {
		return fmt.Errorf("starting redis: %w", err)
	}
	return nil
}

// Down stops the service containers. Errors are ignored because the
// containers may not exist.
func (Services) Down() error {
	rt := containerRuntime()
	if rt == "" {
		return fmt.Errorf("no container runtime found (tried podman, docker)")
	}
	for _, name := range []string{mongoContainer, redisContainer} {
		fmt.Fprintln(os.Stderr, "Stopping", name)
		_ = exec.Command(rt, "stop", name).Run()
	}
	return nil
}
