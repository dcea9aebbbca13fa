package arp

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const procFixture = `IP address       HW type     Flags       HW address            Mask     Device
192.168.1.1      0x1         0x2         a4:2b:b0:c9:14:d8     *        eth0
192.168.1.50     0x1         0x0         00:00:00:00:00:00     *        eth0
192.168.1.77     0x1         0x2         00:00:00:00:00:00     *        eth0
10.0.0.7         0x1         0x6         AA:BB:CC:DD:EE:FF     *        eth1
`

func TestParseProcTable(t *testing.T) {
	table, err := parseProcTable(strings.NewReader(procFixture))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(table) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(table))
	}

	t.Run("complete entry", func(t *testing.T) {
		mac, ok := table.Lookup("192.168.1.1")
		if !ok {
			t.Fatal("expected entry for 192.168.1.1")
		}
		if mac != "a4:2b:b0:c9:14:d8" {
			t.Errorf("expected a4:2b:b0:c9:14:d8, got %s", mac)
		}
	})

	t.Run("uppercase MAC normalized", func(t *testing.T) {
		mac, ok := table.Lookup("10.0.0.7")
		if !ok {
			t.Fatal("expected entry for 10.0.0.7")
		}
		if mac != "aa:bb:cc:dd:ee:ff" {
			t.Errorf("expected aa:bb:cc:dd:ee:ff, got %s", mac)
		}
	})

	t.Run("incomplete flags skipped", func(t *testing.T) {
		if _, ok := table.Lookup("192.168.1.50"); ok {
			t.Error("entry with flags 0x0 should be skipped")
		}
	})

	t.Run("zero MAC skipped", func(t *testing.T) {
		if _, ok := table.Lookup("192.168.1.77"); ok {
			t.Error("entry with all-zero MAC should be skipped")
		}
	})
}

func TestParseCommandOutput(t *testing.T) {
	t.Run("linux and macos format", func(t *testing.T) {
		output := `router.local (192.168.1.1) at a4:2b:b0:c9:14:d8 [ether] on eth0
? (192.168.1.42) at 0:50:56:c0:0:8 on en0 ifscope [ethernet]
? (192.168.1.99) at (incomplete) on en0 ifscope [ethernet]
`
		table := parseCommandOutput(output)

		if len(table) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(table))
		}
		if mac, _ := table.Lookup("192.168.1.1"); mac != "a4:2b:b0:c9:14:d8" {
			t.Errorf("expected a4:2b:b0:c9:14:d8, got %s", mac)
		}
		if mac, _ := table.Lookup("192.168.1.42"); mac != "00:50:56:c0:00:08" {
			t.Errorf("expected padded MAC 00:50:56:c0:00:08, got %s", mac)
		}
		if _, ok := table.Lookup("192.168.1.99"); ok {
			t.Error("incomplete entry should be skipped")
		}
	})

	t.Run("windows format", func(t *testing.T) {
		output := `
Interface: 192.168.1.10 --- 0x4
  Internet Address      Physical Address      Type
  192.168.1.1           a4-2b-b0-c9-14-d8     dynamic
  192.168.1.255         ff-ff-ff-ff-ff-ff     static
`
		table := parseCommandOutput(output)

		if mac, ok := table.Lookup("192.168.1.1"); !ok || mac != "a4:2b:b0:c9:14:d8" {
			t.Errorf("expected a4:2b:b0:c9:14:d8, got %q (present=%v)", mac, ok)
		}
		if mac, ok := table.Lookup("192.168.1.255"); !ok || mac != "ff:ff:ff:ff:ff:ff" {
			t.Errorf("expected ff:ff:ff:ff:ff:ff, got %q (present=%v)", mac, ok)
		}
	})

	t.Run("empty output", func(t *testing.T) {
		table := parseCommandOutput("")
		if len(table) != 0 {
			t.Errorf("expected empty table, got %d entries", len(table))
		}
	})
}

func TestNormalizeMAC(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{"already normalized", "a4:2b:b0:c9:14:d8", "a4:2b:b0:c9:14:d8", true},
		{"uppercase", "AA:BB:CC:DD:EE:FF", "aa:bb:cc:dd:ee:ff", true},
		{"dashes", "a4-2b-b0-c9-14-d8", "a4:2b:b0:c9:14:d8", true},
		{"short octets", "0:50:56:c0:0:8", "00:50:56:c0:00:08", true},
		{"all zeros", "00:00:00:00:00:00", "", false},
		{"too few octets", "aa:bb:cc:dd:ee", "", false},
		{"too many octets", "aa:bb:cc:dd:ee:ff:11", "", false},
		{"not hex", "gg:bb:cc:dd:ee:ff", "", false},
		{"incomplete marker", "(incomplete)", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mac, ok := normalizeMAC(tt.input)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if mac != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, mac)
			}
		})
	}
}

func TestSnapshotProc(t *testing.T) {
	t.Run("reads fixture file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "arp")
		if err := os.WriteFile(path, []byte(procFixture), 0o600); err != nil {
			t.Fatalf("writing fixture: %v", err)
		}

		table, err := snapshotProc(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(table) != 2 {
			t.Errorf("expected 2 entries, got %d", len(table))
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := snapshotProc(filepath.Join(t.TempDir(), "missing")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestLookup(t *testing.T) {
	table := Table{"192.168.1.1": "a4:2b:b0:c9:14:d8"}

	t.Run("exact match", func(t *testing.T) {
		mac, ok := table.Lookup("192.168.1.1")
		if !ok || mac != "a4:2b:b0:c9:14:d8" {
			t.Errorf("expected hit, got %q (present=%v)", mac, ok)
		}
	})

	t.Run("miss", func(t *testing.T) {
		if _, ok := table.Lookup("192.168.1.2"); ok {
			t.Error("expected miss for absent address")
		}
	})

	t.Run("nil table", func(t *testing.T) {
		var empty Table
		if _, ok := empty.Lookup("192.168.1.1"); ok {
			t.Error("expected miss on nil table")
		}
	})
}
