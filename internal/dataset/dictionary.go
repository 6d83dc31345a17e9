package dataset

// Dictionary maps strings to dense codes (0..N) and back.
type Dictionary struct {
	values []string
	index  map[string]int32
}

// NewDictionary creates an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{index: make(map[string]int32)}
}

// DictionaryOf registers values in order.
func DictionaryOf(values ...string) *Dictionary {
	d := NewDictionary()
	for _, v := range values {
		d.Register(v)
	}
	return d
}

// Register returns the code of s, adding it if unseen.
func (d *Dictionary) Register(s string) int32 {
	if id, ok := d.index[s]; ok {
		return id
	}
	id := int32(len(d.values))
	d.values = append(d.values, s)
	d.index[s] = id
	return id
}

// Code looks up s without registering it.
func (d *Dictionary) Code(s string) (int32, bool) {
	id, ok := d.index[s]
	return id, ok
}

// Value returns the string for code.
func (d *Dictionary) Value(code int32) string { return d.values[code] }

// Values returns all registered strings in code order. Callers must not modify it.
func (d *Dictionary) Values() []string { return d.values }

// Len returns the number of registered codes.
func (d *Dictionary) Len() int { return len(d.values) }
