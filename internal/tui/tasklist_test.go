package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"todoshell/internal/config"
	"todoshell/internal/testutil"
)

const mountID = 1

// mountList builds a task list and feeds it the results of its mount probe
// and load.
func mountList(t *testing.T, fake *testutil.FakeService) taskListModel {
	t.Helper()
	m := newTaskListModel(context.Background(), fake, zap.NewNop(), mountID, newStyles())
	require.True(t, m.loading)
	for _, msg := range collect(m.Init()) {
		m, _ = m.Update(msg)
	}
	return m
}

// feed runs a gateway command and hands its result to the model.
func feed(t *testing.T, m taskListModel, cmd tea.Cmd) (taskListModel, []tea.Msg) {
	t.Helper()
	require.NotNil(t, cmd, "expected a gateway call")
	var out []tea.Msg
	for _, msg := range collect(cmd) {
		var next tea.Cmd
		m, next = m.Update(msg)
		out = append(out, collect(next)...)
	}
	return m, out
}

func seeded() *testutil.FakeService {
	fake := testutil.NewFakeService()
	fake.SetSession("ada@example.com")
	fake.AddTask("Buy milk", "2%", "ada@example.com")
	fake.AddTask("Walk dog", "around the block", "ada@example.com")
	fake.AddTask("Call mom", "sunday", "ada@example.com")
	return fake
}

func titles(m taskListModel) []string {
	var out []string
	for _, it := range m.items {
		out = append(out, it.Title)
	}
	return out
}

func TestTaskList_MountProbesAndLoads(t *testing.T) {
	fake := seeded()
	m := mountList(t, fake)

	assert.False(t, m.loading)
	assert.Equal(t, "ada@example.com", m.identity)
	assert.Empty(t, m.err)
	assert.Equal(t, []string{"Buy milk", "Walk dog", "Call mom"}, titles(m))
	for _, it := range m.items {
		assert.False(t, it.completed)
	}
	assert.Equal(t, 1, fake.Calls(testutil.OpList))
	assert.Equal(t, 1, fake.Calls(testutil.OpCurrentSession))
}

func TestTaskList_MountWithoutSession(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddTask("Buy milk", "2%", "ada@example.com")

	m := mountList(t, fake)

	assert.Empty(t, m.identity)
	assert.Equal(t, msgNotLoggedIn, m.err)
	assert.Len(t, m.items, 1)
}

func TestTaskList_MountSessionProbeFails(t *testing.T) {
	fake := seeded()
	fake.CurrentSessionErr = errors.New("backend unreachable")

	m := mountList(t, fake)

	assert.Empty(t, m.identity)
	assert.Equal(t, msgNotLoggedIn, m.err)
}

func TestTaskList_LoadFailure(t *testing.T) {
	fake := seeded()
	fake.ListErr = errors.New("boom")

	m := mountList(t, fake)

	assert.False(t, m.loading)
	assert.Equal(t, msgFetchFailed, m.err)
	assert.Empty(t, m.items)
}

func TestTaskList_LoadEmptyIsNotAnError(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.SetSession("ada@example.com")

	m := mountList(t, fake)

	assert.Empty(t, m.err)
	assert.Empty(t, m.items)
	assert.Contains(t, m.View(), "No todos yet")
}

func TestTaskList_ReloadClearsErrorAndCompletion(t *testing.T) {
	fake := seeded()
	fake.ListErr = errors.New("boom")
	m := mountList(t, fake)
	require.Equal(t, msgFetchFailed, m.err)

	fake.ListErr = nil
	var cmd tea.Cmd
	m, cmd = m.Update(press("r"))
	assert.True(t, m.loading)
	assert.Empty(t, m.err)

	m, _ = feed(t, m, cmd)
	assert.False(t, m.loading)
	require.Len(t, m.items, 3)

	m.toggle(m.items[0].ID)
	m, _ = feed(t, m, m.reload())
	assert.False(t, m.items[0].completed, "completion does not survive a reload")
	assert.Equal(t, 3, fake.Calls(testutil.OpList))
}

func TestTaskList_CreateRequiresBothFields(t *testing.T) {
	tests := []struct {
		name        string
		title, desc string
	}{
		{"empty title", "", "desc"},
		{"blank title", "   ", "desc"},
		{"empty description", "title", ""},
		{"blank description", "title", " \n "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := seeded()
			m := mountList(t, fake)
			m.newTitle.SetValue(tt.title)
			m.newDescription.SetValue(tt.desc)

			cmd := m.create()

			assert.Nil(t, cmd)
			assert.Equal(t, msgFillBoth, m.err)
			assert.False(t, m.creating)
			assert.Equal(t, 0, fake.Calls(testutil.OpInsert))
			assert.Equal(t, tt.title, m.newTitle.Value())
			assert.Equal(t, tt.desc, m.newDescription.Value())
		})
	}
}

func TestTaskList_CreateSuccess(t *testing.T) {
	fake := seeded()
	m := mountList(t, fake)
	m.newTitle.SetValue("  Pay rent ")
	m.newDescription.SetValue(" before the 1st ")

	cmd := m.create()
	assert.True(t, m.creating)
	assert.Nil(t, m.create(), "second create while one is in flight")

	m, _ = feed(t, m, cmd)

	assert.False(t, m.creating)
	assert.Empty(t, m.err)
	assert.Equal(t, []string{"Buy milk", "Walk dog", "Call mom", "Pay rent"}, titles(m))
	assert.Equal(t, "before the 1st", m.items[3].Description)
	assert.Empty(t, m.newTitle.Value())
	assert.Empty(t, m.newDescription.Value())

	assert.Equal(t, 1, fake.Calls(testutil.OpInsert))
	assert.Equal(t, "Pay rent", fake.LastInsert.Title)
	assert.Equal(t, "before the 1st", fake.LastInsert.Description)
	assert.Equal(t, "ada@example.com", fake.LastInsert.Owner)
}

func TestTaskList_CreateUsesFallbackOwner(t *testing.T) {
	fake := testutil.NewFakeService()
	m := mountList(t, fake)
	m.newTitle.SetValue("Pay rent")
	m.newDescription.SetValue("soon")

	m, _ = feed(t, m, m.create())

	assert.Equal(t, config.FallbackOwner, fake.LastInsert.Owner)
	assert.Len(t, m.items, 1)
}

func TestTaskList_CreateEmptyResult(t *testing.T) {
	fake := seeded()
	fake.InsertNoRows = true
	m := mountList(t, fake)
	m.newTitle.SetValue("Pay rent")
	m.newDescription.SetValue("soon")

	m, _ = feed(t, m, m.create())

	assert.Equal(t, msgNoData, m.err)
	assert.False(t, m.creating)
	assert.Len(t, m.items, 3)
	assert.Equal(t, "Pay rent", m.newTitle.Value())
}

func TestTaskList_CreateFailureKeepsInputs(t *testing.T) {
	fake := seeded()
	fake.InsertErr = errors.New("boom")
	m := mountList(t, fake)
	m.newTitle.SetValue("Pay rent")
	m.newDescription.SetValue("soon")

	m, _ = feed(t, m, m.create())

	assert.Equal(t, msgAddFailed, m.err)
	assert.False(t, m.creating)
	assert.Len(t, m.items, 3)
	assert.Equal(t, "Pay rent", m.newTitle.Value())
	assert.Equal(t, "soon", m.newDescription.Value())
}

func TestTaskList_ToggleIsLocal(t *testing.T) {
	fake := seeded()
	m := mountList(t, fake)

	m, _ = m.Update(press(" "))
	assert.True(t, m.items[0].completed)
	m, _ = m.Update(press("down"))
	m, _ = m.Update(press("x"))
	assert.True(t, m.items[1].completed)
	m, _ = m.Update(press("x"))
	assert.False(t, m.items[1].completed)

	assert.Equal(t, 0, fake.Calls(testutil.OpUpdate))
	assert.Contains(t, m.View(), "[x] ")
}

func TestTaskList_EditSave(t *testing.T) {
	fake := seeded()
	m := mountList(t, fake)
	id := m.items[0].ID
	m.toggle(id)

	m.startEdit(id)
	require.NotNil(t, m.edit)
	assert.Equal(t, focusEdit, m.focus)
	assert.Equal(t, "Buy milk", m.edit.title.Value())
	assert.Equal(t, "2%", m.edit.description.Value())

	m.edit.title.SetValue(" Buy oat milk ")
	cmd := m.saveEdit()
	assert.True(t, m.saving)
	assert.Nil(t, m.saveEdit(), "save while one is in flight")

	m, _ = feed(t, m, cmd)

	assert.False(t, m.saving)
	assert.Nil(t, m.edit)
	assert.Equal(t, focusList, m.focus)
	assert.Equal(t, "Buy oat milk", m.items[0].Title)
	assert.True(t, m.items[0].completed, "save never touches completion")
	assert.Equal(t, 1, fake.Calls(testutil.OpUpdate))
	require.NotNil(t, fake.LastUpdate.Title)
	assert.Equal(t, "Buy oat milk", *fake.LastUpdate.Title)
	assert.Equal(t, "2%", *fake.LastUpdate.Description)
}

func TestTaskList_EditSaveValidation(t *testing.T) {
	fake := seeded()
	m := mountList(t, fake)
	m.startEdit(m.items[0].ID)
	m.edit.description.SetValue("  ")

	assert.Nil(t, m.saveEdit())
	assert.Equal(t, msgFillBoth, m.err)
	assert.NotNil(t, m.edit)
	assert.Equal(t, 0, fake.Calls(testutil.OpUpdate))
}

func TestTaskList_EditSaveFailureStaysInEdit(t *testing.T) {
	fake := seeded()
	fake.UpdateErr = errors.New("boom")
	m := mountList(t, fake)
	m.startEdit(m.items[0].ID)
	m.edit.title.SetValue("Changed")

	m, _ = feed(t, m, m.saveEdit())

	assert.Equal(t, msgUpdateFailed, m.err)
	assert.False(t, m.saving)
	require.NotNil(t, m.edit)
	assert.Equal(t, "Changed", m.edit.title.Value())
	assert.Equal(t, "Buy milk", m.items[0].Title)
}

func TestTaskList_StartingAnotherEditAbandonsBuffers(t *testing.T) {
	fake := seeded()
	m := mountList(t, fake)
	first, second := m.items[0].ID, m.items[1].ID

	m.startEdit(first)
	m.edit.title.SetValue("scratch")
	m.startEdit(second)
	assert.Equal(t, second, m.edit.id)
	m.startEdit(first)

	assert.Equal(t, "Buy milk", m.edit.title.Value())
}

func TestTaskList_SaveResultForSwitchedSlot(t *testing.T) {
	fake := seeded()
	m := mountList(t, fake)
	first, second := m.items[0].ID, m.items[1].ID

	m.startEdit(first)
	m.edit.title.SetValue("First edited")
	cmd := m.saveEdit()
	m.startEdit(second)

	m, _ = feed(t, m, cmd)

	assert.Equal(t, "First edited", m.items[0].Title)
	require.NotNil(t, m.edit)
	assert.Equal(t, second, m.edit.id, "slot now targets another item and stays open")
}

func TestTaskList_CancelEdit(t *testing.T) {
	fake := seeded()
	m := mountList(t, fake)
	m.startEdit(m.items[0].ID)
	m.edit.title.SetValue("discard me")

	m, _ = m.Update(press("esc"))

	assert.Nil(t, m.edit)
	assert.Equal(t, focusList, m.focus)
	assert.Equal(t, "Buy milk", m.items[0].Title)
	assert.Equal(t, 0, fake.Calls(testutil.OpUpdate))
}

func TestTaskList_ConcurrentDeletes(t *testing.T) {
	fake := seeded()
	m := mountList(t, fake)
	first, second := m.items[0].ID, m.items[1].ID

	cmd1 := m.remove(first)
	cmd2 := m.remove(second)
	assert.Nil(t, m.remove(first), "delete of the same id while in flight")
	assert.True(t, m.deleting[first])
	assert.True(t, m.deleting[second])
	assert.Contains(t, m.View(), "(deleting...)")

	assert.Nil(t, m.startEdit(first), "edit of an item being deleted")
	assert.Nil(t, m.edit)

	m, _ = feed(t, m, cmd2)
	assert.Equal(t, []string{"Buy milk", "Call mom"}, titles(m))
	assert.True(t, m.deleting[first])

	m, _ = feed(t, m, cmd1)
	assert.Equal(t, []string{"Call mom"}, titles(m))
	assert.Empty(t, m.deleting)
	assert.Equal(t, 2, fake.Calls(testutil.OpDelete))
}

func TestTaskList_DeleteFailure(t *testing.T) {
	fake := seeded()
	fake.DeleteErr = errors.New("boom")
	m := mountList(t, fake)

	m, _ = feed(t, m, m.remove(m.items[0].ID))

	assert.Equal(t, msgDeleteFailed, m.err)
	assert.Len(t, m.items, 3)
	assert.Empty(t, m.deleting)
}

func TestTaskList_DeleteClosesEditOfThatItem(t *testing.T) {
	fake := seeded()
	m := mountList(t, fake)
	id := m.items[2].ID
	m.cursor = 2
	m.startEdit(id)

	m, _ = feed(t, m, m.remove(id))

	assert.Nil(t, m.edit)
	assert.Equal(t, 1, m.cursor)
}

func TestTaskList_LogoutSuccess(t *testing.T) {
	fake := seeded()
	m := mountList(t, fake)

	cmd := m.logout()
	assert.True(t, m.loggingOut)
	assert.Nil(t, m.logout())
	assert.Contains(t, m.View(), "Logging out...")

	m, out := feed(t, m, cmd)

	assert.False(t, m.loggingOut)
	assert.Empty(t, m.identity)
	assert.Empty(t, m.items)
	assert.Contains(t, out, tea.Msg(loggedOutMsg{}))
	assert.Equal(t, 1, fake.Calls(testutil.OpSignOut))
}

func TestTaskList_LogoutFailureKeepsState(t *testing.T) {
	fake := seeded()
	fake.SignOutErr = errors.New("boom")
	m := mountList(t, fake)

	m, out := feed(t, m, m.logout())

	assert.Equal(t, msgLogoutFailed, m.err)
	assert.Equal(t, "ada@example.com", m.identity)
	assert.Len(t, m.items, 3)
	assert.Empty(t, out)
}

func TestTaskList_LogoutClosesOpenEdit(t *testing.T) {
	fake := seeded()
	m := mountList(t, fake)
	m.startEdit(m.items[1].ID)
	require.Equal(t, focusEdit, m.focus)

	m, _ = feed(t, m, m.logout())

	assert.Nil(t, m.edit)
	assert.Equal(t, focusList, m.focus)
	require.NotPanics(t, func() { m, _ = m.Update(press("tab")) })
	assert.Equal(t, focusTitle, m.focus)
}

func TestTaskList_EditKeysWithoutSlot(t *testing.T) {
	fake := seeded()
	m := mountList(t, fake)
	m.focus = focusEdit

	require.NotPanics(t, func() { m, _ = m.Update(press("shift+tab")) })
	assert.Equal(t, focusList, m.focus)
}

func TestTaskList_IgnoresResultsForOtherMount(t *testing.T) {
	fake := seeded()
	m := mountList(t, fake)

	m, _ = m.Update(loadedMsg{mount: mountID + 1})
	m, _ = m.Update(deletedMsg{mount: mountID + 1, id: m.items[0].ID})
	m, _ = m.Update(logoutResultMsg{mount: mountID + 1})

	assert.Len(t, m.items, 3)
	assert.Equal(t, "ada@example.com", m.identity)
}

func TestTaskList_CreateFormKeys(t *testing.T) {
	fake := seeded()
	m := mountList(t, fake)

	m, _ = m.Update(press("tab"))
	require.Equal(t, focusTitle, m.focus)
	m, _ = m.Update(press("q"))
	m, _ = m.Update(press("alt+enter"))
	assert.Equal(t, "q", m.newTitle.Value(), "q types and alt+enter is ignored in the title")
	m.newTitle.SetValue("Title")

	m, _ = m.Update(press("tab"))
	require.Equal(t, focusDescription, m.focus)
	m, _ = m.Update(press("line1"))
	m, _ = m.Update(press("alt+enter"))
	assert.False(t, m.creating, "alt+enter never commits")
	m, _ = m.Update(press("line2"))
	assert.Equal(t, "line1\nline2", m.newDescription.Value())

	m, _ = m.Update(press("esc"))
	assert.Equal(t, focusDescription, m.focus, "esc has no effect on create")
	assert.Equal(t, "Title", m.newTitle.Value())

	m, cmd := m.Update(press("enter"))
	m, _ = feed(t, m, cmd)
	assert.Equal(t, "line1\nline2", fake.LastInsert.Description)
	assert.Len(t, m.items, 4)

	m, _ = m.Update(press("shift+tab"))
	assert.Equal(t, focusTitle, m.focus)
	m, _ = m.Update(press("shift+tab"))
	assert.Equal(t, focusList, m.focus)
}

func TestTaskList_EditKeys(t *testing.T) {
	fake := seeded()
	m := mountList(t, fake)

	m, _ = m.Update(press("down"))
	m, _ = m.Update(press("e"))
	require.NotNil(t, m.edit)
	assert.Equal(t, m.items[1].ID, m.edit.id)

	m, _ = m.Update(press("tab"))
	assert.Equal(t, fieldDescription, m.edit.field)
	m, _ = m.Update(press("alt+enter"))
	m, _ = m.Update(press("twice"))
	assert.Equal(t, "around the block\ntwice", m.edit.description.Value())

	m, cmd := m.Update(press("enter"))
	m, _ = feed(t, m, cmd)
	assert.Nil(t, m.edit)
	assert.Equal(t, "around the block\ntwice", m.items[1].Description)
}

func TestTaskList_ListKeys(t *testing.T) {
	fake := seeded()
	m := mountList(t, fake)

	m, _ = m.Update(press("j"))
	m, _ = m.Update(press("j"))
	m, _ = m.Update(press("j"))
	assert.Equal(t, 2, m.cursor, "cursor stops at the last item")
	m, _ = m.Update(press("k"))
	assert.Equal(t, 1, m.cursor)

	m, cmd := m.Update(press("d"))
	m, _ = feed(t, m, cmd)
	assert.Equal(t, []string{"Buy milk", "Call mom"}, titles(m))

	m, cmd = m.Update(press("ctrl+x"))
	assert.True(t, m.loggingOut)
	require.NotNil(t, cmd)

	_, cmd = m.Update(press("q"))
	assert.Equal(t, []tea.Msg{tea.QuitMsg{}}, collect(cmd))
}
