package sqlite

const (
	insertAnalysisQuery = `
        INSERT INTO video_analyses (
            id, user_id, video_url, transcript, hook, script_base,
            video_title, video_duration, platform, metadata, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `

	listAnalysesQuery = `
        SELECT id, user_id, video_url, transcript, hook, script_base,
               video_title, video_duration, platform, metadata, created_at, updated_at
        FROM video_analyses
        WHERE user_id = ?
        ORDER BY created_at DESC, rowid DESC
        LIMIT ? OFFSET ?
    `

	countAnalysesQuery = `SELECT COUNT(*) FROM video_analyses WHERE user_id = ?`

	insertHookQuery = `
        INSERT INTO viral_hooks (
            id, user_id, idea_input, hook_text, hook_type, retention_score,
            niche, metadata, notes, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `

	listHooksQuery = `
        SELECT id, user_id, idea_input, hook_text, hook_type, retention_score,
               niche, metadata, notes, created_at, updated_at
        FROM viral_hooks
        WHERE user_id = ?
        ORDER BY created_at DESC, rowid DESC
        LIMIT ? OFFSET ?
    `

	countHooksQuery = `SELECT COUNT(*) FROM viral_hooks WHERE user_id = ?`
)
