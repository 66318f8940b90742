package config

import (
	"os"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
)

type Settings struct {
	Render RenderSettings `json:"render"`
	World  WorldSettings  `json:"world"`
	Field  FieldSettings  `json:"field"`
	Server ServerSettings `json:"server"`
}

type RenderSettings struct {
	Width    int  `json:"width"`
	Height   int  `json:"height"`
	MaxSteps int  `json:"maxSteps"`
	Workers  int  `json:"workers"` // 0 = NumCPU
	Packed   bool `json:"packed"`  // use the 4-cells-per-word grid layout
}

type WorldSettings struct {
	GridSize     int   `json:"gridSize"`
	RandomBlocks int   `json:"randomBlocks"`
	Seed         int64 `json:"seed"`
}

type FieldSettings struct {
	ChunkSize int `json:"chunkSize"`
}

type ServerSettings struct {
	Port int `json:"port"`
}

// Default returns the built-in settings for the demo world.
func Default() Settings {
	return Settings{
		Render: RenderSettings{
			Width:    1280,
			Height:   720,
			MaxSteps: 512,
		},
		World: WorldSettings{
			GridSize:     128,
			RandomBlocks: 1000,
			Seed:         1,
		},
		Field: FieldSettings{
			ChunkSize: 16,
		},
		Server: ServerSettings{
			Port: 15000,
		},
	}
}

// Load reads settings from the given JSON file, falling back to the
// defaults when the file does not exist. Fields absent from the file
// keep their default values.
func Load(path string) (Settings, error) {
	settings := Default()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, errors.New("opening settings file failed").
			WithTag("path", path).
			Wrap(err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&settings); err != nil {
		return settings, errors.New("parsing settings file failed").
			WithTag("path", path).
			Wrap(err)
	}
	return settings, nil
}
