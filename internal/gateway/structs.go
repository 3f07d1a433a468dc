package gateway

import "github.com/rocketscienceinc/tictactoe-client/internal/entity"

type createUserRequest struct {
	Name string `json:"name"`
}

type createGameRequest struct {
	PlayerX entity.ID `json:"player_x"`
	PlayerO entity.ID `json:"player_o"`
}

type moveRequest struct {
	Move int `json:"move"`
}
