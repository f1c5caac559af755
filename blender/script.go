package blender

import (
	"math"
	"strconv"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/pkg/errors"
)

const scriptHeader = `import bpy
import math
import os
import traceback

INPUT_PATH = {{quote .Input}}
OUTPUT_PATH = {{quote .Output}}

def run():
    bpy.ops.object.select_all(action='SELECT')
    bpy.ops.object.delete()

    bpy.ops.wm.obj_import(filepath=INPUT_PATH)
    obj = bpy.context.selected_objects[0]
    bpy.context.view_layer.objects.active = obj
`

const scriptFooter = `
    bpy.ops.wm.obj_export(
        filepath=OUTPUT_PATH,
        export_selected_objects=True,
        export_uv={{if .ExportUV}}True{{else}}False{{end}},
        export_materials=False,
    )

try:
    run()
except Exception:
    traceback.print_exc()
    os._exit(1)
`

var operationBodies = map[Kind]string{
	KindUVUnwrap: `
    bpy.ops.object.mode_set(mode='EDIT')
    bpy.ops.mesh.select_all(action='SELECT')
    bpy.ops.uv.smart_project(
        angle_limit={{num .AngleRadians}},
        island_margin={{num .IslandMargin}},
        area_weight=0.0,
        correct_aspect=True,
        scale_to_bounds=False,
    )
    bpy.ops.object.mode_set(mode='OBJECT')
`,
	KindVoxelRemesh: `
    obj.data.remesh_voxel_size = {{num .VoxelSize}}
    bpy.ops.object.voxel_remesh()
`,
	KindQuadRemesh: `
    bpy.ops.object.quadriflow_remesh(
        use_mesh_symmetry=False,
        use_preserve_sharp=False,
        use_preserve_boundary=False,
        smooth_normals=False,
        mode='FACES',
        target_faces={{.TargetFaces}},
        seed=0,
    )
`,
}

var funcs = template.FuncMap{
	"quote": strconv.Quote,
	"num": func(v float64) string {
		return strconv.FormatFloat(v, 'g', -1, 64)
	},
}

var scripts = func() map[Kind]*template.Template {
	m := make(map[Kind]*template.Template, len(operationBodies))
	for kind, body := range operationBodies {
		m[kind] = template.Must(template.New(kind.String()).Funcs(funcs).Parse(scriptHeader + body + scriptFooter))
	}
	return m
}()

type scriptData struct {
	Input        string
	Output       string
	ExportUV     bool
	AngleRadians float64
	IslandMargin float64
	VoxelSize    float64
	TargetFaces  int
}

func render(kind Kind, data scriptData) (string, error) {
	// Python reads a quoted \xff as U+00FF, not as the raw byte.
	for _, p := range []string{data.Input, data.Output} {
		if !utf8.ValidString(p) {
			return "", errors.Errorf("path %q is not valid UTF-8", p)
		}
	}
	tmpl, ok := scripts[kind]
	if !ok {
		return "", errors.Errorf("no script for operation %s", kind)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", errors.Wrapf(err, "rendering %s script", kind)
	}
	return sb.String(), nil
}

func (op *UVUnwrap) script(input, output string) (string, error) {
	return render(op.Kind(), scriptData{
		Input:        input,
		Output:       output,
		ExportUV:     true,
		AngleRadians: op.AngleLimit * math.Pi / 180,
		IslandMargin: op.IslandMargin,
	})
}

func (op *VoxelRemesh) script(input, output string) (string, error) {
	return render(op.Kind(), scriptData{Input: input, Output: output, VoxelSize: op.VoxelSize})
}

func (op *QuadRemesh) script(input, output string) (string, error) {
	return render(op.Kind(), scriptData{Input: input, Output: output, TargetFaces: op.TargetFaces})
}

// Script returns the Python program run for op with the given interchange
// paths. The operation is validated first.
func Script(op Operation, input, output string) (string, error) {
	if op == nil {
		return "", &ParameterError{Operation: "unknown", Err: errors.New("nil operation")}
	}
	if err := op.Validate(); err != nil {
		return "", err
	}
	return op.script(input, output)
}
