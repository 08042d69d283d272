// Package parallel runs CPU pass work on a fixed set of goroutines.
//
// Passes executed on the software allocator touch every pixel of their
// targets. A [Pool] splits a target into horizontal bands and shades them
// concurrently while the frame graph itself stays single-threaded: Rows
// returns only after every band is done, so a pass never outlives its
// Execute step.
//
//	pool := parallel.NewPool(0)
//	defer pool.Close()
//	pool.Rows(img.Bounds(), func(band image.Rectangle) {
//	    shade(img, band)
//	})
package parallel
