package model

// Shard is one world server a user can join. Occupancy is bounded by MaxPlayers.
type Shard struct {
	ID         int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string `gorm:"size:64;not null" json:"name"`
	MaxPlayers int    `gorm:"not null;default:100" json:"max_players"`
}

// Map is a room of the world.
type Map struct {
	ID       int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string    `gorm:"size:64" json:"name"`
	FilePath string    `gorm:"size:256" json:"file_path"`
	SpawnX   float32   `json:"spawn_x"`
	SpawnY   float32   `json:"spawn_y"`
	Exits    []MapExit `gorm:"foreignKey:MapID" json:"exits"`
	Npcs     []MapNpc  `gorm:"foreignKey:MapID" json:"npcs"`
}

// MapExit is a trigger zone leading to another map.
type MapExit struct {
	ID          int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	MapID       int64   `gorm:"index;not null" json:"map_id"`
	X           float32 `json:"x"`
	Y           float32 `json:"y"`
	Width       float32 `json:"width"`
	Height      float32 `json:"height"`
	TargetMapID int64   `json:"target_map_id"`
	// TargetExitID is the exit the player appears at on the target map.
	TargetExitID int64 `json:"target_exit_id"`
}

// MapNpc places an Npc on a map.
type MapNpc struct {
	ID    int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	MapID int64   `gorm:"index;not null" json:"map_id"`
	NpcID int64   `gorm:"not null" json:"npc_id"`
	Npc   *Npc    `gorm:"foreignKey:NpcID" json:"npc,omitempty"`
	X     float32 `json:"x"`
	Y     float32 `json:"y"`
}

type Npc struct {
	ID       int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string      `gorm:"size:64" json:"name"`
	FilePath string      `gorm:"size:256" json:"file_path"`
	Speeches []NpcSpeech `gorm:"foreignKey:NpcID" json:"speeches"`
}

type NpcSpeech struct {
	ID     int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	NpcID  int64  `gorm:"index;not null" json:"npc_id"`
	Speech string `gorm:"size:90" json:"speech"`
}

// Game is a mini-game a player can enter from a map.
type Game struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string `gorm:"size:64" json:"name"`
	FilePath string `gorm:"size:256" json:"file_path"`
}
