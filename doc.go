// Package fiber provides cooperative user-space fibers (green threads) for Go.
//
// Fibers are logical threads of execution that take turns on a single baton.
// A fiber runs until it calls Yield, calls Exit and returns, or returns from
// its entry function; the broker then hands the baton to the next fiber in
// strict round-robin order. Because only one fiber runs at a time, shared
// state only changes at Yield points.
//
// # Quick Start
//
//	fiber.Create(nil, nil, func() {
//		fmt.Println("A1")
//		fiber.Yield()
//		fmt.Println("A2")
//	})
//	fiber.Create(nil, nil, func() {
//		fmt.Println("B1")
//		fiber.Yield()
//		fmt.Println("B2")
//	})
//	fiber.StartFirst() // prints A1 B1 A2 B2, returns when both are done
//
// # Key Concepts
//
// Scheduler: Owns the fiber registry and runs the broker. The package level
// functions use a process-wide default Scheduler that is created on first
// use; tests and libraries should create their own with NewScheduler.
//
// Fiber: A registered unit of scheduling with an ID and a dedicated stack
// region. Fibers are reclaimed by the broker after they exit, never by
// themselves.
//
// Start: Turns the calling goroutine into the broker. It does not return
// until every fiber has finished.
//
// For more details, see https://github.com/Swind/go-fiber
package fiber
