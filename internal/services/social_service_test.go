package services

import (
	"context"
	"strings"
	"testing"

	"learnhub/internal/models"
)

func TestReactionAwardsXPToAuthor(t *testing.T) {
	db := setupTestDB(t)
	xpService := NewXPService(db, testDailyCap)
	service := NewSocialService(db, xpService, 5)
	ctx := context.Background()

	post, err := service.CreatePost(ctx, "author_wallet", "gm, shipped my first contract")
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	result, err := service.React(ctx, "reader_wallet", post.ID, models.ReactionFire)
	if err != nil {
		t.Fatalf("React failed: %v", err)
	}
	if result.Granted != 5 {
		t.Errorf("expected author to earn 5 XP, got %d", result.Granted)
	}

	var author models.Account
	db.Where("wallet_address = ?", "author_wallet").First(&author)
	if author.TotalXP != 5 {
		t.Errorf("author total: expected 5, got %d", author.TotalXP)
	}

	// Same wallet, same kind: rejected
	if _, err := service.React(ctx, "reader_wallet", post.ID, models.ReactionFire); err == nil {
		t.Error("expected error on duplicate reaction")
	}

	// Same wallet, different kind: allowed and pays again
	if _, err := service.React(ctx, "reader_wallet", post.ID, models.ReactionBrain); err != nil {
		t.Fatalf("second kind React failed: %v", err)
	}

	db.Where("wallet_address = ?", "author_wallet").First(&author)
	if author.TotalXP != 10 {
		t.Errorf("author total after two kinds: expected 10, got %d", author.TotalXP)
	}
}

func TestSelfReactionPaysNothing(t *testing.T) {
	db := setupTestDB(t)
	service := NewSocialService(db, NewXPService(db, testDailyCap), 5)
	ctx := context.Background()

	post, err := service.CreatePost(ctx, "author_wallet", "hello")
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	result, err := service.React(ctx, "author_wallet", post.ID, models.ReactionLike)
	if err != nil {
		t.Fatalf("self React failed: %v", err)
	}
	if result != nil {
		t.Errorf("self reaction should not produce an award, got %+v", result)
	}

	// The reaction itself is still recorded
	reactions, err := service.Reactions(ctx, post.ID)
	if err != nil {
		t.Fatalf("Reactions failed: %v", err)
	}
	if len(reactions) != 1 {
		t.Errorf("expected 1 reaction, got %d", len(reactions))
	}
}

func TestReactionValidation(t *testing.T) {
	db := setupTestDB(t)
	service := NewSocialService(db, NewXPService(db, testDailyCap), 5)
	ctx := context.Background()

	post, err := service.CreatePost(ctx, "author_wallet", "hello")
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	if _, err := service.React(ctx, "reader_wallet", post.ID, "WAVE"); err == nil {
		t.Error("expected error for unsupported reaction kind")
	}
}

func TestFeedExcludesHiddenPosts(t *testing.T) {
	db := setupTestDB(t)
	service := NewSocialService(db, NewXPService(db, testDailyCap), 5)
	ctx := context.Background()

	visible, err := service.CreatePost(ctx, "wallet_a", "visible post")
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	hidden, err := service.CreatePost(ctx, "wallet_b", "spam post")
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	if err := service.HidePost(ctx, hidden.ID); err != nil {
		t.Fatalf("HidePost failed: %v", err)
	}

	feed, err := service.Feed(ctx, 0, 10)
	if err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	if len(feed) != 1 || feed[0].ID != visible.ID {
		t.Errorf("unexpected feed contents: %+v", feed)
	}

	// Reacting to a hidden post fails
	if _, err := service.React(ctx, "wallet_c", hidden.ID, models.ReactionLike); err == nil {
		t.Error("expected error reacting to a hidden post")
	}
}

func TestCreatePostValidation(t *testing.T) {
	db := setupTestDB(t)
	service := NewSocialService(db, NewXPService(db, testDailyCap), 5)
	ctx := context.Background()

	if _, err := service.CreatePost(ctx, "wallet_a", "   "); err == nil {
		t.Error("expected error for blank content")
	}
	if _, err := service.CreatePost(ctx, "wallet_a", strings.Repeat("x", maxPostLength+1)); err == nil {
		t.Error("expected error for oversized content")
	}
}
