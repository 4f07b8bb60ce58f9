// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 klog authors

package prompt

import "testing"

func TestYesNo(t *testing.T) {
	tests := []struct {
		name string
		keys []byte
		def  bool
		want bool
	}{
		{name: "explicit yes", keys: []byte{'y'}, def: false, want: true},
		{name: "explicit no", keys: []byte{'n'}, def: true, want: false},
		{name: "return takes default yes", keys: []byte{0}, def: true, want: true},
		{name: "return takes default no", keys: []byte{0}, def: false, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := YesNo(&Script{Keys: tt.keys}, "continue?", tt.def)
			if err != nil {
				t.Fatalf("YesNo: %v", err)
			}
			if got != tt.want {
				t.Errorf("YesNo = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScriptRejectsDisallowedKey(t *testing.T) {
	s := &Script{Keys: []byte{'x'}}
	if _, err := s.Choose("pick", []byte{'a', 'b'}, 'a'); err == nil {
		t.Fatal("expected error for key outside allowed set")
	}
}

func TestScriptExhausted(t *testing.T) {
	s := &Script{}
	if _, err := s.Choose("pick", []byte{'a'}, 'a'); err == nil {
		t.Fatal("expected error when script has no keys left")
	}
}
