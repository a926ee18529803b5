package ecs

// UpdateFrame is handed to every system during one SystemManager.Update.
// DeltaTime is the elapsed time since the previous tick, in seconds.
type UpdateFrame struct {
	DeltaTime float64
	Commands  *Commands
	Storage   *Storage
}

func newUpdateFrame(dt float64, storage *Storage) *UpdateFrame {
	return &UpdateFrame{
		DeltaTime: dt,
		Commands:  newCommands(),
		Storage:   storage,
	}
}
