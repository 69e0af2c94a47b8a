package tree

// Level is a permission level on the ordered scale none < read < write < admin.
type Level int

const (
	LevelNone Level = iota
	LevelRead
	LevelWrite
	LevelAdmin
)

var levelNames = map[Level]string{
	LevelNone:  "none",
	LevelRead:  "read",
	LevelWrite: "write",
	LevelAdmin: "admin",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "none"
}

// ParseLevel maps the wire representation back to a Level. Unknown values
// parse as none.
func ParseLevel(s string) Level {
	switch s {
	case "read":
		return LevelRead
	case "write":
		return LevelWrite
	case "admin":
		return LevelAdmin
	}
	return LevelNone
}

// Grant is an explicit membership: a subject holds a permission level over
// the subtree rooted at Scope.
type Grant struct {
	Subject string
	Scope   Path
	Level   Level
}

// Resolution is the outcome of resolving a subject's effective permission.
// Inconsistent is set when two equally specific grants covered the path,
// which violates the minimality invariant; the most permissive level wins and
// the caller is expected to log the inconsistency, never surface it.
type Resolution struct {
	Level        Level
	Scope        Path
	Inconsistent bool
}

// Effective computes the subject's permission on path by inheritance: among
// grants whose scope covers the path, the most specific (longest) scope wins.
func Effective(subject string, path Path, grants []Grant) Resolution {
	var res Resolution
	bestDepth := -1
	for _, g := range grants {
		if g.Subject != subject || !IsDescendantOrSelf(path, g.Scope) {
			continue
		}
		d := g.Scope.Depth()
		switch {
		case d > bestDepth:
			res = Resolution{Level: g.Level, Scope: g.Scope}
			bestDepth = d
		case d == bestDepth:
			res.Inconsistent = true
			if g.Level > res.Level {
				res.Level = g.Level
				res.Scope = g.Scope
			}
		}
	}
	return res
}

// CanRead reports read access or better.
func CanRead(subject string, path Path, grants []Grant) bool {
	return Effective(subject, path, grants).Level >= LevelRead
}

// CanWrite reports write access or better.
func CanWrite(subject string, path Path, grants []Grant) bool {
	return Effective(subject, path, grants).Level >= LevelWrite
}

// CanAdmin reports admin access.
func CanAdmin(subject string, path Path, grants []Grant) bool {
	return Effective(subject, path, grants).Level >= LevelAdmin
}
