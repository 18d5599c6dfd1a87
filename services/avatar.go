package services

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// AvatarSize is the square avatar edge length in pixels.
const AvatarSize = 100

// avatarBackground is the fixed tile color.
var avatarBackground = color.RGBA{R: 0xF3, G: 0x33, B: 0xFF, A: 0xFF}

var (
	avatarFaceOnce sync.Once
	avatarFace     font.Face
	avatarFaceErr  error
)

func loadAvatarFace() (font.Face, error) {
	avatarFaceOnce.Do(func() {
		parsed, err := opentype.Parse(gobold.TTF)
		if err != nil {
			avatarFaceErr = err
			return
		}
		avatarFace, avatarFaceErr = opentype.NewFace(parsed, &opentype.FaceOptions{
			Size:    AvatarSize / 2,
			DPI:     72,
			Hinting: font.HintingFull,
		})
	})
	return avatarFace, avatarFaceErr
}

// GenerateAvatar renders a deterministic 100x100 PNG tile: fixed background
// with the uppercased first letter of the input centered in white. An empty
// input yields a blank tile. Pure function, no state; tiles are regenerated
// on every request.
func GenerateAvatar(letter string) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, AvatarSize, AvatarSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(avatarBackground), image.Point{}, draw.Src)

	if letter != "" {
		r, _ := utf8.DecodeRuneInString(letter)
		face, err := loadAvatarFace()
		if err != nil {
			return nil, err
		}
		drawer := &font.Drawer{
			Dst:  img,
			Src:  image.White,
			Face: face,
		}
		s := string(unicode.ToUpper(r))
		bounds, _ := drawer.BoundString(s)
		w := bounds.Max.X - bounds.Min.X
		h := bounds.Max.Y - bounds.Min.Y
		drawer.Dot = fixed.Point26_6{
			X: (fixed.I(AvatarSize)-w)/2 - bounds.Min.X,
			Y: (fixed.I(AvatarSize)-h)/2 - bounds.Min.Y,
		}
		drawer.DrawString(s)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
