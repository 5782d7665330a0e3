// Package testbed is a minimal application exercising the rendering core:
// one textured quad rendered through the final pass of every frame.
package testbed

import (
	"fmt"
	"os"

	"github.com/prismengine/prism/engine"
	"github.com/prismengine/prism/engine/core"
	"github.com/prismengine/prism/engine/graphics"
)

type gameState struct {
	context *graphics.RenderContext

	program     *graphics.Program
	bindings    *graphics.ProgramBindings
	vertexBuf   *graphics.Buffer
	constantBuf *graphics.Buffer
	texture     *graphics.Texture
	commandList *graphics.CommandList

	elapsed float64
}

// NewTestGame builds the game hook set around a shared state.
func NewTestGame() *engine.Game {
	state := &gameState{}
	return &engine.Game{
		State:        state,
		FnInitialize: state.initialize,
		FnUpdate:     state.update,
		FnRender:     state.render,
		FnOnResize:   state.onResize,
		FnShutdown:   state.shutdown,
	}
}

// loadShader reads a compiled SPIR-V module. A missing file is not fatal:
// the null backend renders without shader bytecode.
func loadShader(path string) []byte {
	source, err := os.ReadFile(path)
	if err != nil {
		core.LogWarn("shader %s not found, run 'mage build:shaders' to compile it", path)
		return nil
	}
	return source
}

func (s *gameState) initialize(context *graphics.RenderContext) error {
	s.context = context
	manager := context.GetResourceManager()

	var err error
	if s.vertexBuf, err = graphics.NewVertexBuffer(manager, "Quad Vertices", 4*8*4, 8*4); err != nil {
		return err
	}
	if s.constantBuf, err = graphics.NewConstantBuffer(manager, "Quad Uniforms", 64); err != nil {
		return err
	}
	if s.texture, err = graphics.NewImageTexture(manager, "Quad Texture",
		graphics.FrameSize{Width: 256, Height: 256}, graphics.PixelFormatRGBA8Unorm); err != nil {
		return err
	}

	s.program = graphics.NewProgram("Quad Program", graphics.ProgramSettings{
		Shaders: []graphics.ShaderSettings{
			{Type: graphics.ShaderTypeVertex, EntryPoint: "QuadVS", Source: loadShader("shaders/quad.vert.spv")},
			{Type: graphics.ShaderTypePixel, EntryPoint: "QuadPS", Source: loadShader("shaders/quad.frag.spv")},
		},
		Arguments: []graphics.ProgramArgument{
			{ShaderType: graphics.ShaderTypePixel, Name: "g_texture"},
			{ShaderType: graphics.ShaderTypeVertex, Name: "g_uniforms"},
		},
		ColorFormats: []graphics.PixelFormat{context.Settings().ColorFormat},
		DepthFormat:  context.Settings().DepthFormat,
	})

	s.bindings, err = graphics.NewProgramBindings(manager, s.program, map[graphics.ProgramArgument]*graphics.Resource{
		{ShaderType: graphics.ShaderTypePixel, Name: "g_texture"}:   &s.texture.Resource,
		{ShaderType: graphics.ShaderTypeVertex, Name: "g_uniforms"}: &s.constantBuf.Resource,
	})
	if err != nil {
		return err
	}

	s.commandList = context.GetCommandQueue().CreateCommandList(graphics.CommandListTypeRender, "Quad Render List")
	core.LogInfo("testbed initialized")
	return nil
}

func (s *gameState) update(deltaTime float64) error {
	s.elapsed += deltaTime
	return nil
}

func (s *gameState) render(frame *graphics.Frame, deltaTime float64) error {
	list := s.commandList

	if err := list.Reset(fmt.Sprintf("Frame %d", frame.Index)); err != nil {
		return err
	}
	if err := frame.ScreenPass.Begin(list); err != nil {
		return err
	}
	if err := list.SetProgramBindings(s.bindings, graphics.ApplyBehaviorAllIncremental); err != nil {
		return err
	}
	if err := list.Draw(4); err != nil {
		return err
	}
	if err := frame.ScreenPass.End(list); err != nil {
		return err
	}
	if err := list.Commit(); err != nil {
		return err
	}
	return s.context.GetCommandQueue().Execute(frame.Index, list)
}

func (s *gameState) onResize(width, height uint32) error {
	core.LogDebug("testbed resized to %dx%d", width, height)
	return nil
}

func (s *gameState) shutdown() error {
	if s.bindings != nil {
		s.bindings.Release()
	}
	if s.texture != nil {
		s.texture.Release()
	}
	if s.constantBuf != nil {
		s.constantBuf.Release()
	}
	if s.vertexBuf != nil {
		s.vertexBuf.Release()
	}
	fps := s.context.GetFpsCounter()
	core.LogInfo("testbed shutting down after %.1f seconds (%d fps average)",
		s.elapsed, fps.FramesPerSecond())
	return nil
}
