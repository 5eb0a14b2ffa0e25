package renderer

import (
	"errors"
	"fmt"
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/midgard-globe/internal/engine/command"
	"github.com/Faultbox/midgard-globe/internal/engine/globe"
	"github.com/Faultbox/midgard-globe/internal/engine/terrain"
)

// VertexArray is an uploaded, indexed vertex buffer.
type VertexArray struct {
	vao, vbo, ibo uint32
	count         int
}

var _ command.VertexArray = (*VertexArray)(nil)

// ID implements command.VertexArray.
func (v *VertexArray) ID() uint32 { return v.vao }

// IndexCount implements command.VertexArray.
func (v *VertexArray) IndexCount() int { return v.count }

// Release deletes the GL objects.
func (v *VertexArray) Release() {
	if v.vao != 0 {
		gl.DeleteVertexArrays(1, &v.vao)
		gl.DeleteBuffers(1, &v.vbo)
		gl.DeleteBuffers(1, &v.ibo)
		v.vao, v.vbo, v.ibo = 0, 0, 0
	}
}

// Texture is a 2D RGBA texture.
type Texture struct {
	id uint32
}

var _ command.Texture = (*Texture)(nil)

// ID implements command.Texture.
func (t *Texture) ID() uint32 { return t.id }

// Release deletes the texture.
func (t *Texture) Release() {
	if t.id != 0 {
		gl.DeleteTextures(1, &t.id)
		t.id = 0
	}
}

// UploadImage implements globe.TextureUploader.
func (r *Renderer) UploadImage(img *image.RGBA) (command.Texture, error) {
	if img == nil {
		return nil, errors.New("upload image: nil image")
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("upload image: empty bounds %v", b)
	}

	t := &Texture{}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(img.Stride/4))
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(b.Dx()), int32(b.Dy()), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	r.stats.TexturesUploaded++
	return t, nil
}

var _ globe.TextureUploader = (*Renderer)(nil)

// UploadMesh uploads a tile mesh using its encoding's vertex layout.
func (r *Renderer) UploadMesh(mesh *terrain.Mesh) (*VertexArray, error) {
	if len(mesh.Vertices) == 0 || len(mesh.Indices) == 0 {
		return nil, terrain.ErrEmptyMesh
	}
	layout := mesh.Encoding.Layout().VertexBufferLayout()

	va := r.createVertexArray(mesh.Vertices, mesh.Indices)
	for _, a := range layout.Attributes {
		gl.VertexAttribPointer(a.ShaderLocation, vertexFormatComponents(a.Format), gl.FLOAT, false,
			int32(layout.ArrayStride), unsafe.Pointer(uintptr(a.Offset)))
		gl.EnableVertexAttribArray(a.ShaderLocation)
	}
	gl.BindVertexArray(0)

	r.stats.MeshesUploaded++
	return va, nil
}

// UploadWireframe uploads mesh vertices with line indices for every
// triangle edge.
func (r *Renderer) UploadWireframe(mesh *terrain.Mesh) (*VertexArray, error) {
	wire := *mesh
	wire.Indices = WireframeIndices(mesh.Indices)
	return r.UploadMesh(&wire)
}

// UploadLines uploads a line list of xyz positions at attribute location 0.
func (r *Renderer) UploadLines(positions []float32) (*VertexArray, error) {
	if len(positions) < 6 || len(positions)%3 != 0 {
		return nil, fmt.Errorf("upload lines: %d floats is not a line list", len(positions))
	}
	indices := make([]uint32, len(positions)/3)
	for i := range indices {
		indices[i] = uint32(i)
	}

	va := r.createVertexArray(positions, indices)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*4, nil)
	gl.EnableVertexAttribArray(0)
	gl.BindVertexArray(0)
	return va, nil
}

// createVertexArray leaves the new VAO bound for attribute setup.
func (r *Renderer) createVertexArray(vertices []float32, indices []uint32) *VertexArray {
	va := &VertexArray{count: len(indices)}

	gl.GenVertexArrays(1, &va.vao)
	gl.BindVertexArray(va.vao)

	gl.GenBuffers(1, &va.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, va.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	gl.GenBuffers(1, &va.ibo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, va.ibo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)
	return va
}

// WireframeIndices converts a triangle list into a line list of its edges.
func WireframeIndices(triangles []uint32) []uint32 {
	lines := make([]uint32, 0, len(triangles)*2)
	for i := 0; i+2 < len(triangles); i += 3 {
		a, b, c := triangles[i], triangles[i+1], triangles[i+2]
		lines = append(lines, a, b, b, c, c, a)
	}
	return lines
}
