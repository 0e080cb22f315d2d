package model

type Move struct {
	From Position `json:"from"`
	To   Position `json:"to"`
}

func (m Move) String() string {
	return m.From.String() + m.To.String()
}

// WSMove is the move payload clients send over REST and websocket.
type WSMove struct {
	From Position `json:"from"`
	To   Position `json:"to"`
}

func (m WSMove) Move() Move {
	return Move{From: m.From, To: m.To}
}

type Ply struct {
	Piece         Piece     `json:"piece"`
	From          Position  `json:"from"`
	To            Position  `json:"to"`
	CapturedPiece *Piece    `json:"capturedPiece"`
	Promotion     PieceType `json:"promotion"`
	Notation      string    `json:"notation"`
}

// PositionRecord is one accepted move's history entry: the identifier of the
// position after the move and the mover's label.
type PositionRecord struct {
	FEN   string  `json:"fen"`
	Label float64 `json:"label"`
}
