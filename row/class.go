package row

// Class is the styling classification of a row.
type Class string

const (
	ClassNone    Class = "none"
	ClassNew     Class = "new"
	ClassDirty   Class = "dirty"
	ClassDeleted Class = "deleted"
	ClassFailed  Class = "failed"
)

// ClassOf classifies metadata with precedence new > dirty > deleted > failed.
func ClassOf(m Meta) Class {
	switch {
	case m.New:
		return ClassNew
	case m.Dirty:
		return ClassDirty
	case m.Deleted:
		return ClassDeleted
	case m.Failed:
		return ClassFailed
	}
	return ClassNone
}

func (c Class) String() string { return string(c) }
