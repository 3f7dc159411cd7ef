package drift

// transformVertices applies an affine transform to the positions of src,
// writing the result into dst. dst grows to a high-water mark and is returned.
//
// Matrix layout: [0]=a, [1]=b, [2]=c, [3]=d, [4]=tx, [5]=ty
// newX = a*x + c*y + tx, newY = b*x + d*y + ty
func transformVertices(src []Vertex, dst []Vec2, transform [6]float64) []Vec2 {
	if cap(dst) < len(src) {
		dst = make([]Vec2, len(src))
	}
	dst = dst[:len(src)]
	a, b, c, d, tx, ty := transform[0], transform[1], transform[2], transform[3], transform[4], transform[5]
	for i := range src {
		x, y := src[i].X, src[i].Y
		dst[i] = Vec2{X: a*x + c*y + tx, Y: b*x + d*y + ty}
	}
	return dst
}

// textureToLocal maps texture pixel coordinates to mesh-local coordinates.
// It inverts the chain the geometry's UVs go through:
//
//	u = (x/aspect + 1)/2,  v = (y + 1)/2
//	tu = u*RepeatX + OffsetX,  tv = v*RepeatY + OffsetY
//	px = tu*W,  py = (1 - tv)*H
func textureToLocal(aspect float64, w, h float64, fit Fit) [6]float64 {
	rx, ry := fit.RepeatX, fit.RepeatY
	if rx == 0 {
		rx = 1
	}
	if ry == 0 {
		ry = 1
	}
	return [6]float64{
		2 * aspect / (w * rx), 0,
		0, -2 / (h * ry),
		aspect * (-2*fit.OffsetX/rx - 1),
		2*(1-fit.OffsetY)/ry - 1,
	}
}

// textureToDevice returns the image-pixel to device-pixel transform for a
// textured mesh drawn with localToDevice.
func textureToDevice(localToDevice [6]float64, aspect float64, tex *Texture, fit Fit) [6]float64 {
	b := tex.Image.Bounds()
	t := textureToLocal(aspect, float64(b.Dx()), float64(b.Dy()), fit)
	// Account for images whose bounds don't start at the origin.
	t = multiplyAffine(t, [6]float64{1, 0, 0, 1, -float64(b.Min.X), -float64(b.Min.Y)})
	return multiplyAffine(localToDevice, t)
}
