package main

import (
	"time"

	"github.com/spf13/viper"

	"github.com/Rhuann-Nunes/jarvis-bot/session"
	"github.com/Rhuann-Nunes/jarvis-bot/taskwatch"
)

func initViperDefaults() {
	// Supabase
	viper.SetDefault("supabase.url", "")
	viper.SetDefault("supabase.anon_key", "")

	// JARVIS assistant API
	viper.SetDefault("assistant.url", "")
	viper.SetDefault("assistant.retrieval_k", 100)

	// WhatsApp gateway
	viper.SetDefault("gateway.url", "")
	viper.SetDefault("gateway.token", "")
	viper.SetDefault("gateway.poll_timeout", 50*time.Second)

	// Sessions
	viper.SetDefault("session.timeout", session.DefaultTimeout)
	viper.SetDefault("session.sweep_interval", session.DefaultSweepInterval)

	// Task watcher
	viper.SetDefault("watcher.interval", taskwatch.DefaultInterval)
	viper.SetDefault("watcher.lead_time", taskwatch.DefaultLeadTime)
	viper.SetDefault("watcher.notified_cap", taskwatch.DefaultNotifiedCap)

	// Status server
	viper.SetDefault("server.bind", "0.0.0.0")
	viper.SetDefault("server.port", 3000)

	// Reply templates
	viper.SetDefault("router.templates_path", "")
}
