package rapidmultipart

import "bytes"

// matcher finds a fixed byte sequence in a stream that arrives in arbitrary
// chunks. The match cursor (how many leading bytes of target have been seen)
// is owned by the caller and carried from one chunk to the next.
type matcher struct {
	target []byte
	fail   []int // fail[i]: longest proper prefix of target[:i+1] that is also its suffix
}

func newMatcher(target []byte) *matcher {
	m := &matcher{
		target: target,
		fail:   make([]int, len(target)),
	}

	k := 0
	for i := 1; i < len(target); i++ {
		for k > 0 && target[i] != target[k] {
			k = m.fail[k-1]
		}
		if target[i] == target[k] {
			k++
		}
		m.fail[i] = k
	}

	return m
}

// advance scans buf from pos with the given cursor. It stops right after the
// byte that completes the target (cursor == len(target)) or at the end of buf.
func (m *matcher) advance(buf []byte, pos, cursor int) (int, int) {
	n := len(m.target)
	for pos < len(buf) {
		if cursor == 0 {
			// Nothing pending, skip straight to the next candidate first byte.
			i := bytes.IndexByte(buf[pos:], m.target[0])
			if i < 0 {
				return len(buf), 0
			}
			pos += i
		}

		c := buf[pos]
		for cursor > 0 && c != m.target[cursor] {
			cursor = m.fail[cursor-1]
		}
		if c == m.target[cursor] {
			cursor++
		}
		pos++

		if cursor == n {
			return pos, cursor
		}
	}
	return pos, cursor
}

// scan runs advance over the whole of win. Bytes that can no longer be part
// of a match are passed to emit in stream order; this includes bytes matched
// in earlier chunks (held only as the cursor) that a fallback has released,
// which are reproduced from the target itself.
//
// It returns how many bytes of win were consumed, the new cursor and whether
// the target completed. When found, the target bytes are not emitted and the
// returned cursor is zero.
func (m *matcher) scan(win []byte, cursor int, emit func([]byte) error) (consumed, next int, found bool, err error) {
	held := cursor
	pos, cursor := m.advance(win, 0, cursor)

	keep := cursor
	if cursor == len(m.target) {
		found = true
		keep = len(m.target)
	}

	// Everything before the retained (or matched) suffix of target[:held]+win[:pos] is safe.
	safe := held + pos - keep
	if safe > 0 {
		if fromHeld := min(held, safe); fromHeld > 0 {
			if err := emit(m.target[:fromHeld]); err != nil {
				return 0, held, false, err
			}
		}
		if safe > held {
			if err := emit(win[:safe-held]); err != nil {
				return 0, held, false, err
			}
		}
	}

	if found {
		return pos, 0, true, nil
	}
	return pos, cursor, false, nil
}
