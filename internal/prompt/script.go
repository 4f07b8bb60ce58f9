// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 klog authors

package prompt

import "fmt"

// Script is an in-process Prompter fed from a fixed key sequence. It exists
// so interactive flows can be exercised without a terminal. A zero byte in
// the sequence stands for a carriage return (take the default).
type Script struct {
	Keys []byte
	pos  int
}

func (s *Script) Choose(label string, allowed []byte, def byte) (byte, error) {
	if s.pos >= len(s.Keys) {
		return 0, fmt.Errorf("prompt script exhausted at %q", label)
	}
	c := s.Keys[s.pos]
	s.pos++
	if c == 0 {
		return def, nil
	}
	for _, a := range allowed {
		if c == a {
			return c, nil
		}
	}
	return 0, fmt.Errorf("prompt script key %q not allowed at %q", c, label)
}
