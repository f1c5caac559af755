// geompack is a CLI for triangle mesh files. UV unwrapping and remeshing run
// in a background Blender process.
package main

import (
	"fmt"
	"os"

	"github.com/flywave/go-geompack/blender"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "info":
		err = cmdInfo(args)
	case "convert":
		err = cmdConvert(args)
	case "center":
		err = cmdCenter(args)
	case "primitive":
		err = cmdPrimitive(args)
	case "preview":
		err = cmdPreview(args)
	case "locate":
		err = cmdLocate(args)
	case "config":
		err = cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		if _, perr := blender.ParseKind(command); perr != nil {
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
			printUsage()
			os.Exit(1)
		}
		err = cmdOperation(command, args)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func printUsage() {
	fmt.Println(`geompack - mesh processing with an external Blender backend

Usage:
  geompack <command> [options]

Commands:
  info <mesh>                         Show geometry and topology summary
  convert <in> <out>                  Convert between mesh formats
  center <in> <out>                   Move the bounding-box centre to the origin
  primitive <out>                     Create a cube, icosphere or plane
  unwrap <in> <out>                   Smart UV projection in Blender
  voxel-remesh <in> <out>             Voxel remesh in Blender
  quad-remesh <in> <out>              QuadriFlow remesh in Blender
  preview <mesh>                      Export a viewer file and print its metadata
  locate                              Print the Blender executable in use
  config                              Print the effective configuration

Common options:
  -config <file>       yaml or toml config file
  -debug               debug logging
  -metrics-addr <addr> serve prometheus metrics while the command runs
  -blender <path>      blender executable
  -timeout <duration>  blender timeout (default 5m)

Examples:
  geompack info bunny.stl
  geompack primitive -shape sphere -subdivisions 3 sphere.obj
  geompack voxel-remesh -voxel-size 0.02 scan.obj scan_remeshed.obj
  geompack unwrap -angle 45 model.glb model_uv.obj`)
}
