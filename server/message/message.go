package message

type Type string

const (
	Snapshot Type = "snapshot"
	Delta    Type = "delta"
	Error    Type = "error"
)

type Message struct {
	Type Type
	Msg  interface{}
}
