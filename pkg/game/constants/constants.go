package constants

const (
	// WorldWidth is the width of the shared arena
	WorldWidth float64 = 1920.0
	// WorldHeight is the height of the shared arena
	WorldHeight float64 = 1080.0

	// SpaceWidth and SpaceHeight bound the region query index, whose top
	// edge sits at SpaceTop
	SpaceWidth  int     = 2048
	SpaceHeight int     = 1600
	SpaceTop    float64 = -256.0
	// SpaceCellSize is the region query cell size
	SpaceCellSize int = 32

	// Gravity pulls fruit down the y axis, in pixels per second squared
	Gravity float64 = 2000.0
	// TickRate is the number of simulation steps per second
	TickRate int = 60

	// BoxWidth is the inner width of a board's box
	BoxWidth float64 = 675.0
	// BoxHeight is the inner height of a board's box
	BoxHeight float64 = 735.0
	// WallThickness is the thickness of the box walls and floor
	WallThickness float64 = 60.0
	// FloorY is the top of each box's floor
	FloorY float64 = 9 * WorldHeight / 10
	// DeathLineY is the top of the box. An active fruit whose centre is above it kills the board.
	DeathLineY float64 = FloorY - BoxHeight
	// HeldY is where a player's held fruit hangs before it is dropped
	HeldY float64 = DeathLineY - 90.0
	// LostY is the depth past which fallen fruit are discarded
	LostY float64 = SpaceTop + float64(SpaceHeight)

	// FruitRestitution is the bounciness of every fruit
	FruitRestitution float64 = 0.25
	// FruitSpawnAngle is the initial rotation of a new fruit in radians
	FruitSpawnAngle float64 = -0.7853981633974483

	// MaxRank is the rank of the largest fruit, the watermelon
	MaxRank int = 10
	// SpawnableRanks is the number of ranks that can be drawn from the bag
	SpawnableRanks int = 5
	// BagSize is the number of entries generated for a room's bag
	BagSize int = 1000
	// WatermelonPoints is awarded when two watermelons merge
	WatermelonPoints int = 66

	// PopDelayTicks is how long a merging pair lingers before it pops
	PopDelayTicks uint64 = 6
	// ReloadDelayTicks is the cooldown between dropping and holding a new fruit
	ReloadDelayTicks uint64 = 30
	// HeartbeatContactEnds is the number of steps with ended contacts between heartbeat snapshots
	HeartbeatContactEnds int = 20
)

// BoxCenterX returns the horizontal centre of the box for a seat.
func BoxCenterX(seat int) float64 {
	if seat == 0 {
		return WorldWidth / 4.5
	}
	return WorldWidth - WorldWidth/4.5
}
