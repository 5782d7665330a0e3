package graphics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prismengine/prism/engine/graphics"
)

func TestNewProgramBindingsRejectsUndeclaredArgument(t *testing.T) {
	context, _ := newTestContext(t)
	manager := context.GetResourceManager()

	buffer, err := graphics.NewConstantBuffer(manager, "Uniforms", 64)
	require.NoError(t, err)

	program := graphics.NewProgram("Strict Program", graphics.ProgramSettings{
		Arguments: []graphics.ProgramArgument{
			{ShaderType: graphics.ShaderTypeVertex, Name: "g_uniforms"},
		},
	})
	_, err = graphics.NewProgramBindings(manager, program, map[graphics.ProgramArgument]*graphics.Resource{
		{ShaderType: graphics.ShaderTypePixel, Name: "g_unknown"}: &buffer.Resource,
	})
	require.ErrorIs(t, err, graphics.ErrInvalidConfiguration)

	lenient := graphics.NewProgram("Lenient Program", graphics.ProgramSettings{
		IgnoreMissingArguments: true,
	})
	_, err = graphics.NewProgramBindings(manager, lenient, map[graphics.ProgramArgument]*graphics.Resource{
		{ShaderType: graphics.ShaderTypePixel, Name: "g_unknown"}: &buffer.Resource,
	})
	require.NoError(t, err)
}

func TestNewProgramBindingsRequiresProgram(t *testing.T) {
	context, _ := newTestContext(t)

	_, err := graphics.NewProgramBindings(context.GetResourceManager(), nil, nil)
	require.ErrorIs(t, err, graphics.ErrInvalidConfiguration)
}

func TestProgramBindingsResourceLookup(t *testing.T) {
	context, _ := newTestContext(t)
	manager := context.GetResourceManager()

	buffer, err := graphics.NewConstantBuffer(manager, "Lookup Uniforms", 64)
	require.NoError(t, err)

	argument := graphics.ProgramArgument{ShaderType: graphics.ShaderTypeVertex, Name: "g_uniforms"}
	program := graphics.NewProgram("Lookup Program", graphics.ProgramSettings{
		Arguments: []graphics.ProgramArgument{argument},
	})
	bindings, err := graphics.NewProgramBindings(manager, program, map[graphics.ProgramArgument]*graphics.Resource{
		argument: &buffer.Resource,
	})
	require.NoError(t, err)

	assert.Same(t, &buffer.Resource, bindings.Resource(argument))
	assert.Nil(t, bindings.Resource(graphics.ProgramArgument{Name: "missing"}))

	// Released resources read as absent through the bindings.
	buffer.Release()
	assert.Nil(t, bindings.Resource(argument))
}

func TestSetProgramBindingsEmitsStateBarriers(t *testing.T) {
	context, backend := newTestContext(t)
	manager := context.GetResourceManager()

	texture, err := graphics.NewImageTexture(manager, "Bound Texture",
		graphics.FrameSize{Width: 64, Height: 64}, graphics.PixelFormatRGBA8Unorm)
	require.NoError(t, err)

	argument := graphics.ProgramArgument{ShaderType: graphics.ShaderTypePixel, Name: "g_texture"}
	program := graphics.NewProgram("Barrier Program", graphics.ProgramSettings{
		Arguments: []graphics.ProgramArgument{argument},
	})
	bindings, err := graphics.NewProgramBindings(manager, program, map[graphics.ProgramArgument]*graphics.Resource{
		argument: &texture.Resource,
	})
	require.NoError(t, err)

	list := context.GetCommandQueue().CreateCommandList(graphics.CommandListTypeRender, "Bindings List")
	require.NoError(t, list.SetProgramBindings(bindings, graphics.ApplyBehaviorAllIncremental))

	assert.Equal(t, graphics.ResourceStateShaderResource, texture.State())
	assert.Equal(t, 1, backend.AppliedBarrierCount())
	assert.Same(t, bindings, list.CommandState().ProgramBindings)

	// Applying again with barriers enabled is a no-op: the state matches.
	require.NoError(t, list.SetProgramBindings(bindings, graphics.ApplyBehaviorAllIncremental))
	assert.Equal(t, 1, backend.AppliedBarrierCount())
}

func TestSetProgramBindingsRejectsNilAndNonPending(t *testing.T) {
	context, _ := newTestContext(t)
	list := context.GetCommandQueue().CreateCommandList(graphics.CommandListTypeRender, "Nil Bindings List")

	err := list.SetProgramBindings(nil, graphics.ApplyBehaviorAllIncremental)
	require.ErrorIs(t, err, graphics.ErrInvalidConfiguration)

	bindings := newTestBindings(t, context, "Committed Program")
	require.NoError(t, list.Commit())
	err = list.SetProgramBindings(bindings, graphics.ApplyBehaviorAllIncremental)
	require.ErrorIs(t, err, graphics.ErrInvalidState)
}
