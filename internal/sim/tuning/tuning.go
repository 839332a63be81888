package tuning

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion int    `yaml:"protocol_version" json:"protocol_version"`
	ServerName      string `yaml:"server_name" json:"server_name"`
	MOTD            string `yaml:"motd" json:"motd"`
	UserLimit       int    `yaml:"user_limit" json:"user_limit"`

	Listen   string `yaml:"listen" json:"listen"`
	HTTPAddr string `yaml:"http_addr" json:"http_addr"`

	World    WorldParams `yaml:"world" json:"world"`
	Limits   Limits      `yaml:"limits" json:"limits"`
	Messages Messages    `yaml:"messages" json:"messages"`

	// StarterItems are handed out on login, keyed by hotbar slot (0..8).
	StarterItems map[int]StarterItem `yaml:"starter_items" json:"starter_items"`

	KeepAliveSeconds     int `yaml:"keepalive_seconds" json:"keepalive_seconds"`
	SnapshotEverySeconds int `yaml:"snapshot_every_seconds" json:"snapshot_every_seconds"`
}

type WorldParams struct {
	Height int `yaml:"height" json:"height"`
	// Layers lists block kinds from y=0 upwards for the flat generator.
	Layers []byte `yaml:"layers" json:"layers"`
	Spawn  [3]int `yaml:"spawn" json:"spawn"`
	// BoundaryR limits the addressable area to |x|,|z| <= BoundaryR (0 = unbounded).
	BoundaryR  int  `yaml:"boundary_r" json:"boundary_r"`
	GameMode   int8 `yaml:"game_mode" json:"game_mode"`
	Difficulty int8 `yaml:"difficulty" json:"difficulty"`
}

type Limits struct {
	MaxTextUnits    int `yaml:"max_text_units" json:"max_text_units"`
	MaxBlobBytes    int `yaml:"max_blob_bytes" json:"max_blob_bytes"`
	MaxBufferBytes  int `yaml:"max_buffer_bytes" json:"max_buffer_bytes"`
	IdleTimeoutSecs int `yaml:"idle_timeout_seconds" json:"idle_timeout_seconds"`
	OutQueue        int `yaml:"out_queue" json:"out_queue"`
}

type Messages struct {
	WrongProtocol string `yaml:"wrong_protocol" json:"wrong_protocol"`
	ServerFull    string `yaml:"server_full" json:"server_full"`
	Denied        string `yaml:"denied" json:"denied"`
	Idle          string `yaml:"idle" json:"idle"`
	Shutdown      string `yaml:"shutdown" json:"shutdown"`
}

type StarterItem struct {
	ID     int16 `yaml:"id" json:"id"`
	Count  int8  `yaml:"count" json:"count"`
	Damage int16 `yaml:"damage" json:"damage"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion: 39,
		ServerName:      "Mineserver",
		MOTD:            "A mineserver world",
		UserLimit:       20,
		Listen:          ":25565",
		HTTPAddr:        ":8080",
		World: WorldParams{
			Height: 128,
			// bedrock, stone x3, dirt x2, grass
			Layers: []byte{7, 1, 1, 1, 3, 3, 2},
			Spawn:  [3]int{0, 7, 0},
		},
		Limits: Limits{
			MaxTextUnits:    1024,
			MaxBlobBytes:    32 * 1024,
			MaxBufferBytes:  1 << 20,
			IdleTimeoutSecs: 60,
			OutQueue:        256,
		},
		Messages: Messages{
			WrongProtocol: "Wrong protocol version",
			ServerFull:    "Server is full",
			Denied:        "Login denied",
			Idle:          "Timed out",
			Shutdown:      "Server shutting down",
		},
		StarterItems: map[int]StarterItem{
			0: {ID: 1, Count: 64},
			1: {ID: 12, Count: 64},
			2: {ID: 50, Count: 64},
			3: {ID: 270, Count: 1},
		},
		KeepAliveSeconds:     10,
		SnapshotEverySeconds: 300,
	}
}

// Load overlays the yaml file at path onto Defaults().
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.World.Height <= 0 || t.World.Height > 256 {
		return fmt.Errorf("world.height out of range: %d", t.World.Height)
	}
	if len(t.World.Layers) > t.World.Height {
		return fmt.Errorf("world.layers (%d) exceed world.height (%d)", len(t.World.Layers), t.World.Height)
	}
	if t.UserLimit <= 0 || t.UserLimit > 255 {
		return fmt.Errorf("user_limit out of range: %d", t.UserLimit)
	}
	if t.Limits.MaxTextUnits <= 0 || t.Limits.MaxTextUnits > 0xffff {
		return fmt.Errorf("limits.max_text_units out of range: %d", t.Limits.MaxTextUnits)
	}
	if t.Limits.MaxBlobBytes <= 0 || t.Limits.MaxBlobBytes > 0x7fff {
		return fmt.Errorf("limits.max_blob_bytes out of range: %d", t.Limits.MaxBlobBytes)
	}
	for slot := range t.StarterItems {
		if slot < 0 || slot > 8 {
			return fmt.Errorf("starter_items: slot %d outside hotbar", slot)
		}
	}
	return nil
}

func (t Tuning) IdleTimeout() time.Duration {
	return time.Duration(t.Limits.IdleTimeoutSecs) * time.Second
}

func (t Tuning) KeepAliveInterval() time.Duration {
	return time.Duration(t.KeepAliveSeconds) * time.Second
}

func (t Tuning) SnapshotInterval() time.Duration {
	return time.Duration(t.SnapshotEverySeconds) * time.Second
}
