// Package cache provides the frame-aged free list behind the caching
// resource allocator.
//
// # FreeList[K, V]
//
// A free list groups released values by key. Take hands back the most
// recently released value for a key, which keeps warm objects in use.
// Values that stay unused are evicted by Age, called once per frame:
//
//	free := cache.NewFreeList[desc, *image.RGBA]()
//	free.Put(d, img)
//	img, ok := free.Take(d)
//	free.Age(30, 256, func(_ desc, img *image.RGBA) { release(img) })
//
// # Thread Safety
//
// FreeList is not safe for concurrent use. The caching allocator guards it
// with its own mutex.
package cache
