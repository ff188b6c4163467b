// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package toolchain

// This file contains the dispatch table describing how each supported
// programmer toolchain compiles and runs a submission.  The table is built
// once at startup and never mutated, platform differences are folded in at
// construction time rather than at each execution.

import (
	"path/filepath"
	"runtime"
	"strings"
)

// Dispatch is the immutable record describing one language, the compile
// member is empty for interpreted toolchains.  When Compile is present Run
// names the artifact the compile step produces.
type Dispatch struct {
	Key         string   // Unique short identifier, e.g. python3, gpp
	DisplayName string   // Human readable name for listings
	FileName    string   // Canonical source file written into the workspace
	Compile     string   // Compiler program, empty when interpretation suffices
	CompileArgs []string // Arguments handed to the compile program
	Run         string   // Program, or compiled artifact, that executes a case
	RunArgs     []string // Arguments handed to the run program
	Probe       string   // Shell command used to test for the tools presence
	Extension   string   // Derived from FileName
}

func extOf(fn string) string {
	return strings.TrimPrefix(filepath.Ext(fn), ".")
}

// Table builds the full dispatch table for the host platform
func Table() (table map[string]Dispatch) {
	windows := runtime.GOOS == "windows"

	artifact := "./main"
	if windows {
		artifact = "main.exe"
	}
	cArgs := func(src string) []string {
		if windows {
			return []string{src, "-o", "main.exe"}
		}
		return []string{src, "-o", "main"}
	}

	python3Run := "python3"
	if windows {
		python3Run = "python"
	}

	table = map[string]Dispatch{}
	add := func(d Dispatch) {
		d.Extension = extOf(d.FileName)
		table[d.Key] = d
	}

	add(Dispatch{
		Key: "python3", DisplayName: "Python 3", FileName: "main.py",
		Run: python3Run, RunArgs: []string{"main.py"},
		Probe: "python3 --version",
	})
	add(Dispatch{
		Key: "python", DisplayName: "Python", FileName: "main.py",
		Run: "python", RunArgs: []string{"main.py"},
		Probe: "python --version",
	})
	add(Dispatch{
		Key: "java", DisplayName: "Java", FileName: "Main.java",
		Compile: "javac", CompileArgs: []string{"Main.java"},
		Run: "java", RunArgs: []string{"Main"},
		Probe: "java -version",
	})
	add(Dispatch{
		Key: "gcc", DisplayName: "GNU C", FileName: "main.c",
		Compile: "gcc", CompileArgs: cArgs("main.c"),
		Run:   artifact,
		Probe: "gcc --version",
	})
	add(Dispatch{
		Key: "clang", DisplayName: "Clang C", FileName: "main.c",
		Compile: "clang", CompileArgs: cArgs("main.c"),
		Run:   artifact,
		Probe: "clang --version",
	})
	add(Dispatch{
		Key: "gpp", DisplayName: "GNU C++", FileName: "main.cpp",
		Compile: "g++", CompileArgs: cArgs("main.cpp"),
		Run:   artifact,
		Probe: "g++ --version",
	})
	add(Dispatch{
		Key: "clangpp", DisplayName: "Clang C++", FileName: "main.cpp",
		Compile: "clang++", CompileArgs: cArgs("main.cpp"),
		Run:   artifact,
		Probe: "clang++ --version",
	})
	add(Dispatch{
		Key: "rust", DisplayName: "Rust", FileName: "main.rs",
		Compile: "rustc", CompileArgs: cArgs("main.rs"),
		Run:   artifact,
		Probe: "rustc --version",
	})
	add(Dispatch{
		Key: "javascript", DisplayName: "JavaScript", FileName: "main.js",
		Run: "node", RunArgs: []string{"main.js"},
		Probe: "node --version",
	})

	goCompile := []string{"build", "-o", "main", "main.go"}
	if windows {
		goCompile = []string{"build", "-o", "main.exe", "main.go"}
	}
	add(Dispatch{
		Key: "go", DisplayName: "Go", FileName: "main.go",
		Compile: "go", CompileArgs: goCompile,
		Run:   artifact,
		Probe: "go version",
	})
	add(Dispatch{
		Key: "csharp", DisplayName: "C# (.NET)", FileName: "Program.cs",
		Compile: "dotnet", CompileArgs: []string{"build"},
		Run: "dotnet", RunArgs: []string{"run"},
		Probe: "dotnet --version",
	})
	add(Dispatch{
		Key: "psql", DisplayName: "PostgreSQL (psql)", FileName: "",
		Run:   "psql",
		Probe: "psql --version",
	})
	add(Dispatch{
		Key: "kotlin", DisplayName: "Kotlin", FileName: "Main.kt",
		Compile: "kotlinc", CompileArgs: []string{"Main.kt", "-include-runtime", "-d", "Main.jar"},
		Run: "java", RunArgs: []string{"-jar", "Main.jar"},
		Probe: "kotlinc -version",
	})

	return table
}
