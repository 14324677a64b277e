package proj

import "math"

// MapToTileCoords converts map coordinates to fractional tile coordinates of
// the grid anchored at the top-left corner of extent.
//
// Parameters:
//   - x, y: Map coordinates in the units of the extent
//   - extent: The grid's maximal extent
//   - resolution: Map units per pixel at the current zoom level
//
// Returns:
//   - tileX: Column, increasing eastwards (fractional)
//   - tileY: Row, increasing southwards (fractional)
func MapToTileCoords(x, y float64, extent Extent, resolution float64) (tileX, tileY float64) {
	span := resolution * TileSize
	tileX = (x - extent.Left) / span
	tileY = (extent.Top - y) / span
	return tileX, tileY
}

// TileBounds returns the map extent covered by one tile of the grid
func TileBounds(col, row int, extent Extent, resolution float64) Extent {
	span := resolution * TileSize
	left := extent.Left + float64(col)*span
	top := extent.Top - float64(row)*span
	return NewExtent(left, top-span, left+span, top)
}

// GridSize returns the number of tile columns and rows needed to cover extent
func GridSize(extent Extent, resolution float64) (cols, rows int) {
	span := resolution * TileSize
	if span <= 0 {
		return 0, 0
	}
	cols = int(math.Ceil(extent.Width()/span - 1e-9))
	rows = int(math.Ceil(extent.Height()/span - 1e-9))
	return max(cols, 1), max(rows, 1)
}

// MapToScreen converts map coordinates to screen pixels for a viewport of
// width×height pixels centred on (centerX, centerY).
func MapToScreen(x, y, centerX, centerY, resolution float64, width, height int) (screenX, screenY float64) {
	screenX = float64(width)/2 + (x-centerX)/resolution
	screenY = float64(height)/2 - (y-centerY)/resolution
	return screenX, screenY
}

// ScreenToMap is the inverse of MapToScreen
func ScreenToMap(screenX, screenY, centerX, centerY, resolution float64, width, height int) (x, y float64) {
	x = centerX + (screenX-float64(width)/2)*resolution
	y = centerY - (screenY-float64(height)/2)*resolution
	return x, y
}
