package roles

var defaultTable = []Capabilities{
	{
		Role:         Admin,
		SystemPrompt: "You are an AI assistant for HR platform administrators. You have access to all system features including user management, configuration, analytics, and security settings. Provide comprehensive guidance on platform operations.",
		Tools: []string{
			"user_management",
			"system_configuration",
			"security_settings",
			"view_analytics",
			"generate_reports",
			"manage_permissions",
			"audit_logs",
		},
		Features: map[string]bool{
			"user_management":      true,
			"system_configuration": true,
			"security_management":  true,
			"audit_logs":           true,
			"analytics":            true,
			"reporting":            true,
		},
		SuggestedPrompts: []SuggestedPrompt{
			{Title: "User Management", PromptText: "Show me active users and recent activity", Icon: "users"},
			{Title: "System Health", PromptText: "Check system health and performance", Icon: "server"},
			{Title: "Security Alerts", PromptText: "Show me recent security alerts", Icon: "lock"},
		},
	},
	{
		Role:         Recruiter,
		SystemPrompt: "You are an AI recruiting assistant specialized in candidate sourcing, matching, pipeline management, and submission workflows. Help with candidate searches, requirement matching, and negotiation strategies.",
		Tools: []string{
			"search_candidates",
			"match_requirement",
			"schedule_interview",
			"create_submission",
			"generate_outreach",
			"check_pipeline",
			"negotiate_rate",
			"view_analytics",
		},
		Features: map[string]bool{
			"candidate_search":     true,
			"requirement_matching": true,
			"submission_workflow":  true,
			"interview_scheduling": true,
			"rate_negotiation":     true,
			"analytics":            true,
		},
		SuggestedPrompts: []SuggestedPrompt{
			{Title: "Find Similar Candidates", PromptText: "Find candidates similar to the one I just screened", Icon: "people"},
			{Title: "Generate Job Description", PromptText: "Generate a job description for a senior developer role", Icon: "document"},
			{Title: "Negotiate Rate", PromptText: "Help me negotiate the best rate for this candidate", Icon: "handshake"},
		},
	},
	{
		Role:         Manager,
		SystemPrompt: "You are an AI assistant for hiring managers. Help with requirement creation, candidate review, interview scheduling, offer decisions, and team insights.",
		Tools: []string{
			"review_submissions",
			"approve_submission",
			"view_pipeline",
			"compare_candidates",
			"view_analytics",
			"schedule_interview",
			"make_offer_decision",
		},
		Features: map[string]bool{
			"requirement_management": true,
			"candidate_review":       true,
			"submission_workflow":    true,
			"interview_scheduling":   true,
			"offer_management":       true,
			"analytics":              true,
		},
		SuggestedPrompts: []SuggestedPrompt{
			{Title: "Compare Candidates", PromptText: "Compare these two candidates for the senior role", Icon: "comparison"},
			{Title: "Schedule Interviews", PromptText: "Find the best time to schedule interviews this week", Icon: "calendar"},
			{Title: "Review Analytics", PromptText: "Show me our hiring pipeline analytics", Icon: "chart"},
		},
	},
	{
		Role:         Candidate,
		SystemPrompt: "You are a career assistant for job candidates. Help with job search, application tracking, interview preparation, salary negotiation, and onboarding guidance.",
		Tools: []string{
			"search_jobs",
			"update_profile",
			"check_application_status",
			"prepare_interview",
			"negotiate_rate",
			"view_offers",
		},
		Features: map[string]bool{
			"job_search":            true,
			"profile_management":    true,
			"application_tracking":  true,
			"interview_preparation": true,
			"offer_review":          true,
		},
		SuggestedPrompts: []SuggestedPrompt{
			{Title: "Search Jobs", PromptText: "Find developer jobs matching my skills", Icon: "search"},
			{Title: "Prepare for Interview", PromptText: "Help me prepare for my interview tomorrow", Icon: "briefcase"},
			{Title: "Review Offer", PromptText: "Review this job offer and suggest negotiation points", Icon: "document"},
		},
	},
	{
		Role:         Supplier,
		SystemPrompt: "You are an AI assistant for staffing suppliers and vendors. Help with requirement discovery, candidate submissions, performance tracking, and partnership management.",
		Tools: []string{
			"view_requirements",
			"submit_candidate",
			"check_submissions",
			"view_performance",
			"generate_reports",
		},
		Features: map[string]bool{
			"requirement_discovery": true,
			"candidate_submission":  true,
			"submission_tracking":   true,
			"performance_metrics":   true,
		},
		SuggestedPrompts: []SuggestedPrompt{
			{Title: "Find Requirements", PromptText: "Show me open requirements I can fill", Icon: "search"},
			{Title: "Submit Candidate", PromptText: "Help me submit a candidate for a requirement", Icon: "upload"},
			{Title: "View Performance", PromptText: "Show my performance metrics this month", Icon: "chart"},
		},
	},
	{
		Role:         Referrer,
		SystemPrompt: "You are an AI assistant for referral partners. Help with opportunity discovery, referral submissions, earnings tracking, and referral guidance.",
		Tools: []string{
			"view_opportunities",
			"submit_referral",
			"check_earnings",
			"generate_referral_link",
			"view_referral_status",
		},
		Features: map[string]bool{
			"opportunity_discovery": true,
			"referral_submission":   true,
			"earnings_tracking":     true,
			"referral_management":   true,
		},
		SuggestedPrompts: []SuggestedPrompt{
			{Title: "View Opportunities", PromptText: "Show me the latest job opportunities", Icon: "lightbulb"},
			{Title: "Check Earnings", PromptText: "What are my referral earnings this month?", Icon: "coins"},
			{Title: "Share Referral Link", PromptText: "Generate a referral link to share", Icon: "share"},
		},
	},
}
