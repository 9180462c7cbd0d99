package render

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

var stlTestMesh = Mesh{
	{V: [3]r3.Vec{{}, {X: 1}, {Y: 1}}},
	{V: [3]r3.Vec{{Z: 1}, {X: 1, Z: 1}, {Y: 1, Z: 1}}},
}

func TestWriteSTLFormat(t *testing.T) {
	var b bytes.Buffer
	if err := WriteSTL(&b, stlTestMesh); err != nil {
		t.Fatal(err)
	}
	want := 84 + stlTriangleSize*len(stlTestMesh)
	if b.Len() != want {
		t.Fatalf("got %d bytes, want %d", b.Len(), want)
	}
	count := binary.LittleEndian.Uint32(b.Bytes()[80:])
	if count != uint32(len(stlTestMesh)) {
		t.Fatalf("header count %d, want %d", count, len(stlTestMesh))
	}
	got, err := readBinarySTL(&b)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(stlTestMesh) {
		t.Fatalf("read back %d triangles, want %d", len(got), len(stlTestMesh))
	}
	for i, tri := range got {
		for j, v := range tri.V {
			w := stlTestMesh[i].V[j]
			if math.Abs(v.X-w.X) > 1e-6 || math.Abs(v.Y-w.Y) > 1e-6 || math.Abs(v.Z-w.Z) > 1e-6 {
				t.Errorf("triangle %d vertex %d: got %v, want %v", i, j, v, w)
			}
		}
	}
}

func TestWriteSTLEmptyMesh(t *testing.T) {
	var b bytes.Buffer
	if err := WriteSTL(&b, nil); err != nil {
		t.Fatal(err)
	}
	if b.Len() != 84 {
		t.Fatalf("empty mesh wrote %d bytes, want header only (84)", b.Len())
	}
	got, err := readBinarySTL(&b)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("read %d triangles from empty file", len(got))
	}
}

func TestWriteSTLNormals(t *testing.T) {
	var b bytes.Buffer
	if err := WriteSTL(&b, stlTestMesh[:1]); err != nil {
		t.Fatal(err)
	}
	var n [3]float32
	get3F32(b.Bytes()[84:], &n)
	// CCW triangle in the xy plane faces +z.
	if n[0] != 0 || n[1] != 0 || math.Abs(float64(n[2])-1) > 1e-6 {
		t.Errorf("got normal %v, want +z", n)
	}
}

func TestSaveSTL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.stl")
	if err := SaveSTL(path, stlTestMesh); err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := int64(84 + stlTriangleSize*len(stlTestMesh)); fi.Size() != want {
		t.Fatalf("file size %d, want %d", fi.Size(), want)
	}
	// No temporary files may survive a successful save.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("directory holds %d entries after save, want 1", len(entries))
	}
}

func TestSaveSTLMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "out.stl")
	if err := SaveSTL(path, stlTestMesh); err == nil {
		t.Fatal("expected error saving into missing directory")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("failed save left a file behind")
	}
}
