package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/segmentio/encoding/json"

	"voxelray/config"
	"voxelray/core"
	"voxelray/field"
	"voxelray/network"
	"voxelray/trace"
)

func main() {
	runtime.LockOSThread()

	settings, err := config.Load("settings.json")
	if err != nil {
		log.Fatal(err)
	}

	var (
		width      = flag.Int("width", settings.Render.Width, "Render width in pixels")
		height     = flag.Int("height", settings.Render.Height, "Render height in pixels")
		gridSize   = flag.Int("grid", settings.World.GridSize, "World grid size per axis")
		maxSteps   = flag.Int("steps", settings.Render.MaxSteps, "Traversal step budget")
		workers    = flag.Int("workers", settings.Render.Workers, "Render workers (0 = all CPUs)")
		packed     = flag.Bool("packed", settings.Render.Packed, "Use the packed 4-cells-per-word grid layout")
		branchless = flag.Bool("branchless", false, "Use the branchless step selection")
		normals    = flag.Bool("normals", false, "Shade hits by face normal instead of material")
		headless   = flag.Bool("headless", false, "Render one frame, print stats, and exit")
		serve      = flag.Bool("serve", false, "Run the chunk server instead of the viewer")
		connect    = flag.String("connect", "", "Chunk server websocket URL (e.g. ws://host:15000/ws)")
		logLevel   = flag.String("log", "info", "Log level")
	)
	flag.Parse()

	logs.SetLevel(logs.ParseLevel(*logLevel))
	logs.Encoder = json.Marshal

	fmt.Println("=== Voxel Ray Tracer ===")
	fmt.Printf("Grid: %d^3\n", *gridSize)
	fmt.Printf("Output: %dx%d\n", *width, *height)
	fmt.Printf("Step budget: %d\n", *maxSteps)

	grid := buildDemoWorld(*gridSize, settings.World.RandomBlocks, settings.World.Seed)

	if *serve {
		addr := fmt.Sprintf(":%d", settings.Server.Port)
		srv := network.NewServer(addr, grid)
		log.Fatal(srv.ListenAndServe())
	}

	var accessor core.CellAccessor = grid
	if *packed {
		accessor = core.PackGrid(grid)
		fmt.Println("Grid layout: packed (4 cells per 32-bit word)")
	}

	tracer := trace.NewTracer(accessor, *maxSteps)
	renderer := trace.NewRenderer(tracer)
	renderer.Branchless = *branchless
	renderer.ShadeNormals = *normals
	if *workers > 0 {
		renderer.Workers = *workers
	}

	// Distance field pass over the chunk at the grid origin, for the
	// sphere-tracing consumers downstream.
	gen := field.NewGenerator(settings.Field.ChunkSize)
	start := time.Now()
	df := gen.Compute(func(x, y, z int) bool {
		return grid.Get(x, y, z) != 0
	})
	fmt.Printf("Distance field: %d^3 in %v\n", df.N, time.Since(start))

	var updates chan chunkUpdate
	if *connect != "" {
		updates = make(chan chunkUpdate, 256)
		go runClient(*connect, updates)
	}

	if *headless {
		fb := core.NewFramebuffer(*width, *height)
		v := newViewer(renderer, grid, *width, *height, nil)
		start = time.Now()
		renderer.Render(v.camera(), fb)
		fmt.Printf("Frame: %dx%d in %v\n", *width, *height, time.Since(start))
		return
	}

	newViewer(renderer, grid, *width, *height, updates).run()
}

// runClient feeds server chunk updates into the frame-boundary queue.
func runClient(url string, updates chan chunkUpdate) {
	client := network.NewClient(url)
	client.OnChunk = func(pos [3]int32, cells []byte) {
		buf := make([]byte, len(cells))
		copy(buf, cells)
		updates <- chunkUpdate{pos: pos, cells: buf}
	}
	client.OnMonoChunk = func(pos [3]int32, blockType int8) {
		updates <- chunkUpdate{pos: pos, blockType: blockType, mono: true}
	}

	ctx := context.Background()
	if err := client.Connect(ctx); err != nil {
		logs.Warn(err)
		return
	}
	defer client.Close()

	if err := client.SendClientMetadata(8, "voxelray"); err != nil {
		logs.Warn(err)
		return
	}
	if err := client.Run(ctx); err != nil {
		logs.Warn(err)
	}
}
