package gif

import (
	"image"
	"image/color"
	"image/color/palette"
	imgdraw "image/draw"
	"math"

	"github.com/PrincetonUniversity/opticflow"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// dpi makes one point map to one pixel.
const dpi = 72

// A Renderer rasterizes frames.
// The image plane spans [-1, 1] along both axes.
type Renderer struct {
	Width, Height int // size in pixels

	Background color.Color // background color
	Foreground color.Color // color of the dots
	Fixation   color.Color // color of the fixation cross

	FixationRadius vg.Length // half length of the fixation cross arms
	FixationWidth  vg.Length // line width of the fixation cross

	Palette color.Palette // palette of the output images
	Dither  bool          // use Floyd-Steinberg error diffusion
}

// NewRenderer returns a renderer with white dots and a red fixation cross
// on a black background.
func NewRenderer(width, height int) *Renderer {
	return &Renderer{
		Width:          width,
		Height:         height,
		Background:     color.Black,
		Foreground:     color.White,
		Fixation:       color.RGBA{R: 0xff, A: 0xff},
		FixationRadius: 6,
		FixationWidth:  2,
		Palette:        palette.Plan9,
	}
}

// Render draws the stars of a frame as filled discs plus the fixation cross.
// Star sizes are marker areas in square points.
func (r *Renderer) Render(f opticflow.Frame) *image.Paletted {
	c := r.canvas()
	dc := draw.New(c)
	sty := draw.GlyphStyle{Color: r.Foreground, Shape: draw.CircleGlyph{}}
	for _, s := range f.Stars {
		sty.Radius = markerRadius(s.Size)
		dc.DrawGlyph(sty, r.position(&dc, s.Point))
	}
	r.drawFixation(&dc, f.Fixation)
	return r.quantize(c.Image())
}

// RenderFixation draws a frame that only contains the fixation cross.
func (r *Renderer) RenderFixation(p opticflow.Point) *image.Paletted {
	c := r.canvas()
	dc := draw.New(c)
	r.drawFixation(&dc, p)
	return r.quantize(c.Image())
}

func (r *Renderer) canvas() *vgimg.Canvas {
	return vgimg.NewWith(
		vgimg.UseWH(vg.Length(r.Width), vg.Length(r.Height)),
		vgimg.UseDPI(dpi),
		vgimg.UseBackgroundColor(r.Background),
	)
}

// position maps image plane coordinates to the canvas.
func (r *Renderer) position(dc *draw.Canvas, p opticflow.Point) vg.Point {
	return vg.Point{X: dc.X((p.X + 1) / 2), Y: dc.Y((p.Y + 1) / 2)}
}

func (r *Renderer) drawFixation(dc *draw.Canvas, p opticflow.Point) {
	dc.DrawGlyph(draw.GlyphStyle{
		Color:  r.Fixation,
		Radius: r.FixationRadius,
		Shape:  crossGlyph{width: r.FixationWidth},
	}, r.position(dc, p))
}

// quantize converts a rendered image to a paletted one.
func (r *Renderer) quantize(img image.Image) *image.Paletted {
	p := image.NewPaletted(img.Bounds(), r.Palette)
	if r.Dither {
		imgdraw.FloydSteinberg.Draw(p, p.Bounds(), img, image.Point{})
	} else {
		imgdraw.Draw(p, p.Bounds(), img, image.Point{}, imgdraw.Src)
	}
	return p
}

// markerRadius returns the radius of a disc of the given area.
func markerRadius(area float64) vg.Length {
	return vg.Length(math.Sqrt(area / math.Pi))
}

// crossGlyph draws an upright cross with thick arms.
type crossGlyph struct {
	width vg.Length
}

// DrawGlyph implements the draw.GlyphDrawer interface.
func (g crossGlyph) DrawGlyph(c *draw.Canvas, sty draw.GlyphStyle, pt vg.Point) {
	r := sty.Radius
	c.StrokeLines(draw.LineStyle{Color: sty.Color, Width: g.width},
		[]vg.Point{{X: pt.X - r, Y: pt.Y}, {X: pt.X + r, Y: pt.Y}},
		[]vg.Point{{X: pt.X, Y: pt.Y - r}, {X: pt.X, Y: pt.Y + r}},
	)
}
