package commands

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestApplyEnvBackfillsConfig(t *testing.T) {
	env := map[string]string{
		"CUNY_USERNAME":       "JDoe",
		"CUNY_PASSWORD":       "hunter2",
		"DISCORD_WEBHOOK_URL": "https://discord.example/webhook",
		"DISCORD_USER_ID":     "42",
		"COURSE_NAMES":        "CSCI 101, MATH 201",
		"COURSE_CODES":        "11111,22222",
	}

	cfg := applyEnv(Config{}, func(key string) string { return env[key] })

	expected := Config{
		Username: "JDoe",
		Password: "hunter2",
		Courses:  []string{"CSCI 101", "MATH 201"},
		Sections: []string{"11111", "22222"},
		Discord: DiscordConfig{
			WebhookUrl: "https://discord.example/webhook",
			UserId:     "42",
		},
	}
	if diff := cmp.Diff(expected, cfg); diff != "" {
		t.Fatal(diff)
	}
}

func TestApplyEnvKeepsFileValues(t *testing.T) {
	fromFile := Config{
		Username: "file-user",
		Password: "file-pass",
		Courses:  []string{"PHYS 301"},
		Sections: []string{"33333"},
	}

	cfg := applyEnv(fromFile, func(string) string { return "" })
	require.Equal(t, fromFile, cfg)
}

func TestSplitList(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, splitList("a, b,"))
	require.Nil(t, splitList(" , "))
}
