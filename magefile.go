//go:build mage

// Copyright 2021-2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName   = "pvalloc"
	packageName  = "."
	versionPkg   = "github.com/penny-vault/pv-allocate/common"
	coverProfile = "coverage.out"
	buildDateFmt = "2006-01-02T15:04:05Z0700"
)

var ldflags = fmt.Sprintf("-X %[1]s.commitHash=$COMMIT_HASH -X %[1]s.buildDate=$BUILD_DATE", versionPkg)

// GOEXE overrides the go executable
var goexe = "go"

func init() {
	if exe := os.Getenv("GOEXE"); exe != "" {
		goexe = exe
	}
}

var Default = Build

// Build the pvalloc binary with version information
func Build() error {
	fmt.Println("Building...")
	return sh.RunWith(flagEnv(), goexe, withBuildFlags("build", "-o", binaryName, "-ldflags", ldflags, packageName)...)
}

// Install pvalloc into GOBIN
func Install() error {
	return sh.RunWith(flagEnv(), goexe, withBuildFlags("install", "-ldflags", ldflags, packageName)...)
}

// Clean removes build and coverage artifacts
func Clean() {
	fmt.Println("Cleaning...")
	os.RemoveAll(binaryName)
	os.RemoveAll(coverProfile)
}

// Check runs the formatter, vet and the race enabled test suite
func Check() {
	mg.Deps(Fmt, Vet)
	mg.Deps(TestRace)
}

// Test runs every ginkgo suite
func Test() error {
	fmt.Println("Go Test")
	return runCmd(goexe, "test", "./...")
}

// TestRace runs the suites with the race detector; the rolling estimator and allocators run concurrently
func TestRace() error {
	fmt.Println("Go Test Race")
	return runCmd(goexe, "test", "-race", "./...")
}

// Cover writes an HTML coverage report for all packages
func Cover() error {
	if err := runCmd(goexe, "test", "-coverprofile="+coverProfile, "-covermode=count", "./..."); err != nil {
		return err
	}
	return sh.Run(goexe, "tool", "cover", "-html="+coverProfile)
}

// Fmt fails when any file is not gofmt'ed
func Fmt() error {
	fmt.Println("Go Format")

	// gofmt exits zero even when it finds unformatted files
	out, err := sh.Output("gofmt", "-l", ".")
	if err != nil {
		return err
	}

	var unformatted []string
	for _, fn := range strings.Split(out, "\n") {
		if fn != "" && !strings.HasPrefix(fn, "_") {
			unformatted = append(unformatted, fn)
		}
	}

	if len(unformatted) > 0 {
		fmt.Println("The following files are not gofmt'ed:")
		fmt.Println(strings.Join(unformatted, "\n"))
		return errors.New("improperly formatted go files")
	}
	return nil
}

// Vet runs go vet
func Vet() error {
	fmt.Println("Go Vet")
	if err := sh.Run(goexe, "vet", "./..."); err != nil {
		return fmt.Errorf("error running go vet: %w", err)
	}
	return nil
}

func withBuildFlags(args ...string) []string {
	if runtime.GOOS != "windows" {
		return args
	}
	flags := []string{args[0], "-buildmode", "exe"}
	return append(flags, args[1:]...)
}

func flagEnv() map[string]string {
	hash, _ := sh.Output("git", "rev-parse", "--short", "HEAD")
	return map[string]string{
		"COMMIT_HASH": hash,
		"BUILD_DATE":  time.Now().Format(buildDateFmt),
	}
}

func runCmd(cmd string, args ...string) error {
	if mg.Verbose() {
		return sh.Run(cmd, args...)
	}
	output, err := sh.Output(cmd, args...)
	if err != nil {
		fmt.Fprint(os.Stderr, output)
	}
	return err
}
