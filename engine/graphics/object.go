package graphics

import "github.com/google/uuid"

// Object is the common identity of every named graphics object.
type Object struct {
	id   uuid.UUID
	name string
}

func newObject(name string) Object {
	return Object{
		id:   uuid.New(),
		name: name,
	}
}

func (o *Object) ID() uuid.UUID {
	return o.id
}

func (o *Object) Name() string {
	return o.name
}

func (o *Object) SetName(name string) {
	o.name = name
}
