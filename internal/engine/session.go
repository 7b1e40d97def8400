package engine

import "slices"

// Session is the authoritative game for one room. It is not safe for
// concurrent use; callers serialize access (see package lobby).
type Session struct {
	RoomID string

	players   []string
	grids     map[string]*Grid
	phase     Phase
	turn      string
	placed    map[string]bool
	gone      map[string]bool
	winner    string
	abandoned bool
}

type Snapshot struct {
	RoomID    string
	Phase     Phase
	Players   []string
	Turn      string
	Placed    int
	Winner    string
	Abandoned bool
}

func NewSession(roomID string) *Session {
	return &Session{
		RoomID: roomID,
		grids:  make(map[string]*Grid, 2),
		phase:  PhaseWaiting,
		placed: make(map[string]bool, 2),
		gone:   make(map[string]bool, 2),
	}
}

func (s *Session) Phase() Phase { return s.phase }

// Turn is only meaningful while playing.
func (s *Session) Turn() string { return s.turn }

func (s *Session) Winner() string { return s.winner }

func (s *Session) Players() []string { return slices.Clone(s.players) }

// Closed reports whether the session is over, either won or abandoned.
func (s *Session) Closed() bool {
	return s.phase == PhaseFinished || s.abandoned
}

func (s *Session) Snapshot() Snapshot {
	turn := ""
	if s.phase == PhasePlaying {
		turn = s.turn
	}
	return Snapshot{
		RoomID:    s.RoomID,
		Phase:     s.phase,
		Players:   s.Players(),
		Turn:      turn,
		Placed:    len(s.placed),
		Winner:    s.winner,
		Abandoned: s.abandoned,
	}
}

// Board returns a copy of the cells on playerID's own grid.
func (s *Session) Board(playerID string) ([BoardSize]Cell, bool) {
	g, ok := s.grids[playerID]
	if !ok {
		return [BoardSize]Cell{}, false
	}
	return g.Cells(), true
}

func (s *Session) Join(playerID string) ([]Notification, error) {
	if s.Closed() {
		return nil, ErrInvalidPhase
	}
	if s.hasPlayer(playerID) {
		return nil, ErrAlreadyJoined
	}
	if len(s.players) >= 2 {
		return nil, ErrRoomFull
	}

	s.players = append(s.players, playerID)
	s.grids[playerID] = NewGrid()
	if len(s.players) < 2 {
		return nil, nil
	}

	// First joiner opens.
	first, second := s.players[0], s.players[1]
	s.phase = PhasePlacing
	s.turn = first

	return []Notification{
		{To: first, Type: EvtPlayerJoined, PlayerID: second},
		{To: first, Type: EvtStartGame, PlayerID: first},
		{To: second, Type: EvtStartGame, PlayerID: first},
	}, nil
}

func (s *Session) PlaceTreasure(playerID string, cell int) ([]Notification, error) {
	if s.abandoned {
		return nil, ErrInvalidPhase
	}
	g, ok := s.grids[playerID]
	if !ok {
		return nil, ErrNotInRoom
	}
	if s.placed[playerID] {
		return nil, ErrAlreadyPlaced
	}
	if s.phase != PhasePlacing {
		return nil, ErrInvalidPhase
	}

	if err := g.PlaceTreasure(cell); err != nil {
		return nil, err
	}
	s.placed[playerID] = true

	if len(s.placed) == len(s.players) {
		s.phase = PhasePlaying
	}
	return nil, nil
}

// Probe opens cell on the opponent's grid on behalf of playerID.
func (s *Session) Probe(playerID string, cell int) ([]Notification, error) {
	if s.abandoned {
		return nil, ErrInvalidPhase
	}
	if !s.hasPlayer(playerID) {
		return nil, ErrNotInRoom
	}
	if s.phase != PhasePlaying {
		return nil, ErrInvalidPhase
	}
	if playerID != s.turn {
		return nil, ErrNotYourTurn
	}

	opponent := opponentOf(s.players, playerID)
	hit, err := s.grids[opponent].Probe(cell)
	if err != nil {
		return nil, err
	}

	out := []Notification{{To: opponent, Type: EvtOpponentMove, Cell: cell}}
	if !hit {
		s.turn = nextTurn(s.players, s.turn)
		return out, nil
	}

	s.phase = PhaseFinished
	s.winner = playerID
	out = append(out, Notification{To: playerID, Type: EvtHit, Cell: cell})
	for _, p := range s.players {
		out = append(out, Notification{To: p, Type: EvtGameOver, PlayerID: playerID})
	}
	return out, nil
}

// Leave records a disconnect. Before play starts the session is abandoned
// and whoever remains is told. During play the game is kept until every
// player has gone.
func (s *Session) Leave(playerID string) ([]Notification, error) {
	if !s.hasPlayer(playerID) {
		return nil, ErrNotInRoom
	}
	if s.Closed() {
		return nil, nil
	}

	switch s.phase {
	case PhaseWaiting, PhasePlacing:
		s.abandoned = true
		s.gone[playerID] = true
		var out []Notification
		for _, p := range s.players {
			if p != playerID {
				out = append(out, Notification{To: p, Type: EvtOpponentLeft, PlayerID: playerID})
			}
		}
		return out, nil

	case PhasePlaying:
		s.gone[playerID] = true
		if len(s.gone) == len(s.players) {
			s.abandoned = true
		}
	}
	return nil, nil
}

// Connected reports whether playerID is seated and has not disconnected.
func (s *Session) Connected(playerID string) bool {
	return s.hasPlayer(playerID) && !s.gone[playerID]
}

func (s *Session) hasPlayer(playerID string) bool {
	return slices.Contains(s.players, playerID)
}
