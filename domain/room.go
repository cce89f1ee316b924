package domain

// RoomName identifies a broadcast channel. Valid names are the open
// general room plus one room per hub.
type RoomName string

const RoomGeneral RoomName = "general"

func KnownRooms() []RoomName {
	rooms := []RoomName{RoomGeneral}
	for _, h := range Hubs() {
		rooms = append(rooms, RoomName(h))
	}
	return rooms
}

func (r RoomName) Known() bool {
	if r == RoomGeneral {
		return true
	}
	_, err := ParseHub(string(r))
	return err == nil
}
