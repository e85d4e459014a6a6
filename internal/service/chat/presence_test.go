package chat

import (
	"testing"
)

func TestPresenceNotifiesOnlySubscribedFollowers(t *testing.T) {
	repos := newTestRepos(t)
	registry := NewRegistry()
	presence := NewPresenceManager(registry, repos.Follow, plainNicknames{})

	// bob and carol follow alice, dave does not.
	for _, follower := range []string{"bob", "carol", "dave"} {
		if follower != "dave" {
			if err := repos.Follow.Create(follower, "alice"); err != nil {
				t.Fatal(err)
			}
		}
	}

	bob := NewClient("bob", nil)
	carol := NewClient("carol", nil)
	dave := NewClient("dave", nil)
	for _, c := range []*Client{bob, carol, dave} {
		registry.Register(c)
	}

	// Only bob subscribes.
	presence.Subscribe(bob)

	presence.NotifyTransition("alice", "online")

	event := recvEvent(t, bob)
	if event["type"] != "presence_change" || event["user"] != "alice" || event["status"] != "online" {
		t.Fatalf("unexpected event: %v", event)
	}
	if event["scope"] != "friends" {
		t.Fatalf("expected friends scope, got %v", event["scope"])
	}
	noEvent(t, carol)
	noEvent(t, dave)
}

func TestPresenceUnsubscribeStopsPushes(t *testing.T) {
	repos := newTestRepos(t)
	registry := NewRegistry()
	presence := NewPresenceManager(registry, repos.Follow, plainNicknames{})
	if err := repos.Follow.Create("bob", "alice"); err != nil {
		t.Fatal(err)
	}

	bob := NewClient("bob", nil)
	registry.Register(bob)
	presence.Subscribe(bob)
	presence.Unsubscribe(bob)

	presence.NotifyTransition("alice", "offline")
	noEvent(t, bob)
}

func TestPresenceSubscriptionIsPerConnection(t *testing.T) {
	repos := newTestRepos(t)
	registry := NewRegistry()
	presence := NewPresenceManager(registry, repos.Follow, plainNicknames{})
	if err := repos.Follow.Create("bob", "alice"); err != nil {
		t.Fatal(err)
	}

	first := NewClient("bob", nil)
	second := NewClient("bob", nil)
	registry.Register(first)
	registry.Register(second)
	presence.Subscribe(first)
	presence.Subscribe(second)
	presence.Unsubscribe(first)

	presence.NotifyTransition("alice", "online")
	noEvent(t, first)
	recvEvent(t, second)
}

func TestSnapshotListsOnlineFolloweesSorted(t *testing.T) {
	repos := newTestRepos(t)
	registry := NewRegistry()
	nicknames := plainNicknames{"zed": "Aardvark", "amy": "Zebra"}
	presence := NewPresenceManager(registry, repos.Follow, nicknames)

	for _, followee := range []string{"zed", "amy", "offline_guy"} {
		if err := repos.Follow.Create("bob", followee); err != nil {
			t.Fatal(err)
		}
	}
	registry.Register(NewClient("zed", nil))
	registry.Register(NewClient("zed", nil))
	registry.Register(NewClient("amy", nil))

	users, err := presence.Snapshot("bob")
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 online followees, got %d", len(users))
	}
	// Case-insensitive sort by display name: Aardvark before Zebra.
	if users[0].Username != "zed" || users[1].Username != "amy" {
		t.Fatalf("unexpected order: %v", users)
	}
	if users[0].Connections != 2 {
		t.Fatalf("expected 2 connections for zed, got %d", users[0].Connections)
	}
	if users[0].Name != "Aardvark" || users[0].Nickname != "Aardvark" {
		t.Fatalf("display name not resolved: %+v", users[0])
	}
}
