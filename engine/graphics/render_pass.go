package graphics

import "fmt"

// AttachmentLoadAction tells the pass what to do with attachment contents
// at Begin time.
type AttachmentLoadAction uint8

const (
	AttachmentLoadActionDontCare AttachmentLoadAction = iota
	AttachmentLoadActionLoad
	AttachmentLoadActionClear
)

// AttachmentStoreAction tells the pass what to do with attachment contents
// at End time.
type AttachmentStoreAction uint8

const (
	AttachmentStoreActionDontCare AttachmentStoreAction = iota
	AttachmentStoreActionStore
	AttachmentStoreActionResolve
)

// Attachment binds one texture sub-resource to a render pass slot.
type Attachment struct {
	Texture     *Texture
	MipLevel    uint32
	Slice       uint32
	DepthPlane  uint32
	LoadAction  AttachmentLoadAction
	StoreAction AttachmentStoreAction
}

type ColorAttachment struct {
	Attachment
	ClearColor Color4
}

type DepthAttachment struct {
	Attachment
	ClearValue float32
}

type StencilAttachment struct {
	Attachment
	ClearValue uint8
}

// RenderPassSettings fully describes a pass configuration. Two settings
// are interchangeable exactly when they are structurally equal, which is
// what makes Update a cheap no-op on redundant reconfiguration.
type RenderPassSettings struct {
	ColorAttachments  []ColorAttachment
	DepthAttachment   *DepthAttachment
	StencilAttachment *StencilAttachment
	// ShaderAccess marks the non-frame-buffer attachments as read by
	// shaders of a later pass; End transitions them accordingly.
	ShaderAccess ResourceUsage
	RenderArea   FrameSize
	IsFinalPass  bool
}

// Equal compares settings structurally, dereferencing the optional
// depth and stencil attachments.
func (s RenderPassSettings) Equal(other RenderPassSettings) bool {
	if len(s.ColorAttachments) != len(other.ColorAttachments) {
		return false
	}
	for i := range s.ColorAttachments {
		if s.ColorAttachments[i] != other.ColorAttachments[i] {
			return false
		}
	}
	if (s.DepthAttachment == nil) != (other.DepthAttachment == nil) {
		return false
	}
	if s.DepthAttachment != nil && *s.DepthAttachment != *other.DepthAttachment {
		return false
	}
	if (s.StencilAttachment == nil) != (other.StencilAttachment == nil) {
		return false
	}
	if s.StencilAttachment != nil && *s.StencilAttachment != *other.StencilAttachment {
		return false
	}
	return s.ShaderAccess == other.ShaderAccess &&
		s.RenderArea == other.RenderArea &&
		s.IsFinalPass == other.IsFinalPass
}

// RenderPass encodes output-merger configuration for a span of rendering
// commands. Begin and End must pair up on the same command list; the final
// pass of a frame transitions its color targets to Present on End.
type RenderPass struct {
	Object

	settings RenderPassSettings
	begun    bool

	// Cached attachment texture lists, rebuilt lazily after Update.
	colorTextures          []*Texture
	nonFrameBufferTextures []*Texture
	texturesCached         bool
}

func NewRenderPass(name string, settings RenderPassSettings) *RenderPass {
	pass := &RenderPass{
		Object:   newObject(name),
		settings: settings,
	}
	pass.initAttachmentStates()
	return pass
}

func (rp *RenderPass) Settings() RenderPassSettings {
	return rp.settings
}

func (rp *RenderPass) IsBegun() bool {
	return rp.begun
}

// Update replaces the pass settings and reports whether anything changed.
// Equal settings short-circuit without touching the cached state.
func (rp *RenderPass) Update(settings RenderPassSettings) bool {
	if rp.settings.Equal(settings) {
		return false
	}
	rp.settings = settings
	rp.invalidateCachedTextures()
	rp.initAttachmentStates()
	return true
}

// Begin transitions the attachment textures into their writable states
// (RenderTarget for color, DepthWrite for depth) and opens the pass.
// Beginning an already begun pass is a pairing mistake.
func (rp *RenderPass) Begin(commandList *CommandList) error {
	if rp.begun {
		return fmt.Errorf("%w: render pass %q can not be begun because it was not ended", ErrInvalidState, rp.Name())
	}

	barriers := &Barriers{}
	if err := rp.setColorAttachmentStates(ResourceStateRenderTarget, barriers); err != nil {
		return err
	}
	rp.setDepthAttachmentState(ResourceStateDepthWrite, barriers)
	if err := commandList.SetResourceBarriers(barriers); err != nil {
		return err
	}

	rp.begun = true
	return nil
}

// End closes the pass. The final pass of the frame moves its color targets
// to Present state so the swap-chain can flip them.
func (rp *RenderPass) End(commandList *CommandList) error {
	if !rp.begun {
		return fmt.Errorf("%w: render pass %q can not be ended because it was not begun", ErrInvalidState, rp.Name())
	}

	switch {
	case rp.settings.IsFinalPass:
		barriers := &Barriers{}
		if err := rp.setColorAttachmentStates(ResourceStatePresent, barriers); err != nil {
			return err
		}
		if err := commandList.SetResourceBarriers(barriers); err != nil {
			return err
		}
	case rp.settings.ShaderAccess == ResourceUsageShaderRead:
		// Intermediate pass output sampled by a later pass.
		textures, err := rp.NonFrameBufferAttachmentTextures()
		if err != nil {
			return err
		}
		barriers := &Barriers{}
		for _, texture := range textures {
			if texture.IsReleased() {
				continue
			}
			texture.SetState(ResourceStateShaderResource, barriers)
		}
		if err := commandList.SetResourceBarriers(barriers); err != nil {
			return err
		}
	}

	rp.begun = false
	return nil
}

// ColorAttachmentTextures returns the textures of all color attachments.
// The list is cached until the next settings update. A nil texture on a
// color attachment is invalid configuration; a released texture is treated
// as absent.
func (rp *RenderPass) ColorAttachmentTextures() ([]*Texture, error) {
	if err := rp.cacheAttachmentTextures(); err != nil {
		return nil, err
	}
	return rp.colorTextures, nil
}

// NonFrameBufferAttachmentTextures returns the attachment textures that do
// not belong to the swap-chain: non-frame-buffer color textures plus the
// depth and stencil textures. Cached like the color list.
func (rp *RenderPass) NonFrameBufferAttachmentTextures() ([]*Texture, error) {
	if err := rp.cacheAttachmentTextures(); err != nil {
		return nil, err
	}
	return rp.nonFrameBufferTextures, nil
}

// ReleaseAttachmentTextures releases every attachment texture and drops
// them from the settings. Used on context teardown and before resize.
func (rp *RenderPass) ReleaseAttachmentTextures() {
	for i := range rp.settings.ColorAttachments {
		if texture := rp.settings.ColorAttachments[i].Texture; texture != nil {
			texture.Release()
		}
		rp.settings.ColorAttachments[i].Texture = nil
	}
	if rp.settings.DepthAttachment != nil && rp.settings.DepthAttachment.Texture != nil {
		rp.settings.DepthAttachment.Texture.Release()
		rp.settings.DepthAttachment.Texture = nil
	}
	if rp.settings.StencilAttachment != nil && rp.settings.StencilAttachment.Texture != nil {
		rp.settings.StencilAttachment.Texture.Release()
		rp.settings.StencilAttachment.Texture = nil
	}
	rp.invalidateCachedTextures()
}

// initAttachmentStates advances freshly attached color textures from the
// initial Common state to Present without emitting barriers. Textures whose
// state is already tracked by another pass are left untouched.
func (rp *RenderPass) initAttachmentStates() {
	for _, attachment := range rp.settings.ColorAttachments {
		texture := attachment.Texture
		if texture == nil || texture.IsReleased() {
			continue
		}
		if texture.State() == ResourceStateCommon {
			texture.SetState(ResourceStatePresent, nil)
		}
	}
}

func (rp *RenderPass) setColorAttachmentStates(state ResourceState, barriers *Barriers) error {
	textures, err := rp.ColorAttachmentTextures()
	if err != nil {
		return err
	}
	for _, texture := range textures {
		if texture.IsReleased() {
			continue
		}
		texture.SetState(state, barriers)
	}
	return nil
}

func (rp *RenderPass) setDepthAttachmentState(state ResourceState, barriers *Barriers) {
	if rp.settings.DepthAttachment == nil {
		return
	}
	texture := rp.settings.DepthAttachment.Texture
	if texture == nil || texture.IsReleased() {
		return
	}
	texture.SetState(state, barriers)
}

func (rp *RenderPass) invalidateCachedTextures() {
	rp.colorTextures = nil
	rp.nonFrameBufferTextures = nil
	rp.texturesCached = false
}

func (rp *RenderPass) cacheAttachmentTextures() error {
	if rp.texturesCached {
		return nil
	}

	colorTextures := make([]*Texture, 0, len(rp.settings.ColorAttachments))
	nonFrameBuffer := make([]*Texture, 0, len(rp.settings.ColorAttachments)+2)

	for i, attachment := range rp.settings.ColorAttachments {
		if attachment.Texture == nil {
			return fmt.Errorf("%w: color attachment %d of render pass %q has no texture",
				ErrInvalidConfiguration, i, rp.Name())
		}
		if attachment.Texture.IsReleased() {
			continue
		}
		colorTextures = append(colorTextures, attachment.Texture)
		if attachment.Texture.TextureType() != TextureTypeFrameBuffer {
			nonFrameBuffer = append(nonFrameBuffer, attachment.Texture)
		}
	}
	if rp.settings.DepthAttachment != nil {
		if texture := rp.settings.DepthAttachment.Texture; texture != nil && !texture.IsReleased() {
			nonFrameBuffer = append(nonFrameBuffer, texture)
		}
	}
	if rp.settings.StencilAttachment != nil {
		if texture := rp.settings.StencilAttachment.Texture; texture != nil && !texture.IsReleased() {
			nonFrameBuffer = append(nonFrameBuffer, texture)
		}
	}

	rp.colorTextures = colorTextures
	rp.nonFrameBufferTextures = nonFrameBuffer
	rp.texturesCached = true
	return nil
}
