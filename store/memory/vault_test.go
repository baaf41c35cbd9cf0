package memstore

import (
	"testing"

	"github.com/goliatone/go-credbroker/core"
)

func TestVault_GroupTreeAndLookup(t *testing.T) {
	vault := NewVault("personal")
	root, ok := vault.RootGroup()
	if !ok {
		t.Fatalf("expected a root group")
	}
	web := root.(*Group).AddChild("Web")
	shopping := web.AddChild("Shopping")
	entry := shopping.AddEntry(EntrySpec{Title: "store", Username: "alice", URL: "https://example.com"})

	found, ok := vault.FindGroupByPath("Web/Shopping")
	if !ok || found.ID() != shopping.ID() {
		t.Fatalf("expected path lookup to hit the leaf group")
	}
	if _, ok := vault.FindGroupByPath("Web/Missing"); ok {
		t.Fatalf("expected unknown path to miss")
	}

	got, ok := vault.FindEntryByID(entry.ID())
	if !ok || got.Title() != "store" {
		t.Fatalf("expected entry lookup by id")
	}
	if got.GroupName() != "Shopping" {
		t.Fatalf("group name = %q, want Shopping", got.GroupName())
	}
}

func TestVault_CreateGroupBuildsMissingSegments(t *testing.T) {
	vault := NewVault("personal")

	group, err := vault.CreateGroup("/Web/Shopping/")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if group.Name() != "Shopping" {
		t.Fatalf("leaf name = %q", group.Name())
	}

	again, err := vault.CreateGroup("Web/Shopping")
	if err != nil {
		t.Fatalf("create existing group: %v", err)
	}
	if again.ID() != group.ID() {
		t.Fatalf("expected existing path reused, got new group")
	}

	if _, err := vault.CreateGroup("  "); err == nil {
		t.Fatalf("expected empty path to fail")
	}
}

func TestVault_CreateEntryRequiresKnownGroup(t *testing.T) {
	vault := NewVault("personal")
	root, _ := vault.RootGroup()

	entry, err := vault.CreateEntry(root.ID(), core.CreateEntryInput{Title: "acct", URL: "https://example.com"})
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if entry.Title() != "acct" {
		t.Fatalf("title = %q", entry.Title())
	}

	if _, err := vault.CreateEntry("missing", core.CreateEntryInput{Title: "x"}); err == nil {
		t.Fatalf("expected unknown group to fail")
	}
}

func TestVault_RecycleEntry(t *testing.T) {
	vault := NewVault("personal")
	root, _ := vault.RootGroup()
	entry := root.(*Group).AddEntry(EntrySpec{Title: "doomed"})

	if err := vault.RecycleEntry(entry.ID()); err != nil {
		t.Fatalf("recycle: %v", err)
	}
	if !entry.Recycled() {
		t.Fatalf("expected entry flagged recycled")
	}
	if err := vault.RecycleEntry("missing"); err == nil {
		t.Fatalf("expected unknown entry to fail")
	}
}

func TestVault_RecursiveIterators(t *testing.T) {
	vault := NewVault("personal")
	root, _ := vault.RootGroup()
	web := root.(*Group).AddChild("Web")
	web.AddEntry(EntrySpec{Title: "a"})
	web.AddChild("Deep").AddEntry(EntrySpec{Title: "b"})

	groups := 0
	for range vault.GroupsRecursive() {
		groups++
	}
	if groups != 3 {
		t.Fatalf("groups = %d, want 3", groups)
	}

	entries := 0
	for range vault.EntriesRecursive() {
		entries++
	}
	if entries != 2 {
		t.Fatalf("entries = %d, want 2", entries)
	}
}

func TestVault_RecycleBinIsSingleton(t *testing.T) {
	vault := NewVault("personal")
	if vault.RecycleBinID() != "" {
		t.Fatalf("expected no bin before first use")
	}

	bin := vault.EnableRecycleBin()
	if vault.RecycleBinID() != bin.ID() {
		t.Fatalf("bin id mismatch")
	}
	if bin.SearchingEnabled() || !bin.Recycled() {
		t.Fatalf("bin must be excluded from searches")
	}
	if again := vault.EnableRecycleBin(); again.ID() != bin.ID() {
		t.Fatalf("expected the same bin on repeat calls")
	}
}

func TestVault_CustomData(t *testing.T) {
	vault := NewVault("personal")
	if err := vault.SetCustomDataValue("b", "2"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := vault.SetCustomDataValue("a", "1"); err != nil {
		t.Fatalf("set: %v", err)
	}

	keys := vault.CustomDataKeys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("keys = %v, want sorted", keys)
	}
	if value, ok := vault.CustomDataValue("a"); !ok || value != "1" {
		t.Fatalf("value = %q, %v", value, ok)
	}

	if err := vault.RemoveCustomDataValue("a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok := vault.CustomDataValue("a"); ok {
		t.Fatalf("expected key removed")
	}
}

func TestProvider_ActiveAndOpenVaults(t *testing.T) {
	first := NewVault("first")
	second := NewVault("second")
	provider := NewProvider(first, second)

	active, ok := provider.ActiveVault()
	if !ok || active.ID() != first.ID() {
		t.Fatalf("expected first vault active")
	}

	provider.SetActive(second.ID())
	active, ok = provider.ActiveVault()
	if !ok || active.ID() != second.ID() {
		t.Fatalf("expected switched active vault")
	}

	first.SetLocked(true)
	open := provider.OpenVaults()
	if len(open) != 1 || open[0].ID() != second.ID() {
		t.Fatalf("expected locked vault excluded from open set")
	}
}

func TestProvider_EmptyHasNoActiveVault(t *testing.T) {
	provider := NewProvider()
	if _, ok := provider.ActiveVault(); ok {
		t.Fatalf("expected no active vault")
	}

	vault := NewVault("late")
	provider.AddVault(vault)
	active, ok := provider.ActiveVault()
	if !ok || active.ID() != vault.ID() {
		t.Fatalf("expected first added vault to become active")
	}
}
