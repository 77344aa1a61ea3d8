package utils

import (
	"image"
	"math"
	"runtime"
	"sync"

	"go.viam.com/utils"
)

// ParallelFactor controls the max level of parallelization. This might be useful
// to set in tests where too much parallelism actually slows tests down in
// aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
	quarterProcs := float64(ParallelFactor) * .25
	if quarterProcs > 8 {
		ParallelFactor = int(quarterProcs)
	}
}

// ParallelForEachPixel loops through the image and calls f functions for each [x, y] position.
// The image is divided into N * N blocks, where N is ParallelFactor. For each block a
// parallel Goroutine is started. f must only write to state owned by its own pixel.
func ParallelForEachPixel(size image.Point, f func(x, y int)) {
	procs := ParallelFactor
	if size.X < procs || size.Y < procs {
		for y := 0; y < size.Y; y++ {
			for x := 0; x < size.X; x++ {
				f(x, y)
			}
		}
		return
	}
	stepX := int(math.Floor(float64(size.X) / float64(procs)))
	stepY := int(math.Floor(float64(size.Y) / float64(procs)))

	var waitGroup sync.WaitGroup
	waitGroup.Add(procs * procs)
	for i := 0; i < procs; i++ {
		startX := i * stepX
		endX := size.X
		if i < procs-1 {
			endX = (i + 1) * stepX
		}
		for j := 0; j < procs; j++ {
			startY := j * stepY
			endY := size.Y
			if j < procs-1 {
				endY = (j + 1) * stepY
			}
			sX, eX, sY, eY := startX, endX, startY, endY
			utils.PanicCapturingGo(func() {
				defer waitGroup.Done()
				for y := sY; y < eY; y++ {
					for x := sX; x < eX; x++ {
						f(x, y)
					}
				}
			})
		}
	}
	waitGroup.Wait()
}

// ParallelForEachRow calls f once per row of an image of the given height, rows split
// across ParallelFactor goroutines.
func ParallelForEachRow(height int, f func(y int)) {
	procs := MinInt(ParallelFactor, MaxInt(height, 1))
	step := int(math.Ceil(float64(height) / float64(procs)))

	var waitGroup sync.WaitGroup
	for from := 0; from < height; from += step {
		from := from
		to := MinInt(from+step, height)
		waitGroup.Add(1)
		utils.PanicCapturingGo(func() {
			defer waitGroup.Done()
			for y := from; y < to; y++ {
				f(y)
			}
		})
	}
	waitGroup.Wait()
}
