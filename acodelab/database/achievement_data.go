package database

import (
	"github.com/acodelab/backend/acodelab/database/models"
)

// AchievementCatalog returns the predefined achievement catalog. Seeding
// is idempotent: entries insert with ON CONFLICT DO NOTHING, so calling
// it repeatedly never duplicates or overwrites tuned rows.
//
// Catalog invariant: no achievement's criteria can be satisfied by the
// points its own reward pays out, otherwise the reward payout would
// re-trigger the engine forever. The reward amounts below stay well under
// every points-criteria threshold.
func AchievementCatalog() []models.Achievement {
	return []models.Achievement{
		// Beginner
		{
			ID:          "first_question",
			Name:        "Primeira Pergunta",
			Description: "Faça sua primeira pergunta na comunidade",
			Category:    models.CategoryBeginner,
			Rarity:      models.RarityCommon,
			BadgeIcon:   "❓",
			BadgeColor:  "#10B981",
			Criteria: models.Criteria{
				Kind:        models.CriteriaCount,
				TargetValue: 1,
				TargetField: "questions_created",
			},
			PointsReward: 5,
			PConReward:   2,
			SortOrder:    1,
		},
		{
			ID:          "first_answer",
			Name:        "Primeira Resposta",
			Description: "Dê sua primeira resposta útil",
			Category:    models.CategoryBeginner,
			Rarity:      models.RarityCommon,
			BadgeIcon:   "💡",
			BadgeColor:  "#F59E0B",
			Criteria: models.Criteria{
				Kind:        models.CriteriaCount,
				TargetValue: 1,
				TargetField: "answers_created",
			},
			PointsReward: 5,
			PConReward:   2,
			SortOrder:    2,
		},
		// Contributor
		{
			ID:          "helpful_contributor",
			Name:        "Colaborador Útil",
			Description: "Tenha 10 respostas aceitas",
			Category:    models.CategoryContributor,
			Rarity:      models.RarityRare,
			BadgeIcon:   "🤝",
			BadgeColor:  "#3B82F6",
			Criteria: models.Criteria{
				Kind:        models.CriteriaCount,
				TargetValue: 10,
				TargetField: "accepted_answers",
			},
			PointsReward: 50,
			PConReward:   25,
			SortOrder:    10,
		},
		{
			ID:          "community_champion",
			Name:        "Campeão da Comunidade",
			Description: "Receba 100 upvotes em suas contribuições",
			Category:    models.CategoryContributor,
			Rarity:      models.RarityEpic,
			BadgeIcon:   "🏆",
			BadgeColor:  "#8B5CF6",
			Criteria: models.Criteria{
				Kind:        models.CriteriaCount,
				TargetValue: 100,
				TargetField: "total_upvotes",
			},
			PointsReward: 100,
			PConReward:   50,
			SortOrder:    20,
		},
		// Expert
		{
			ID:          "knowledge_master",
			Name:        "Mestre do Conhecimento",
			Description: "Alcance 1000 pontos PC",
			Category:    models.CategoryExpert,
			Rarity:      models.RarityLegendary,
			BadgeIcon:   "🧠",
			BadgeColor:  "#EF4444",
			Criteria: models.Criteria{
				Kind:        models.CriteriaPoints,
				TargetValue: 1000,
				TargetField: "pc_points",
			},
			PointsReward: 200,
			PConReward:   100,
			SortOrder:    30,
		},
		// Social
		{
			ID:          "social_butterfly",
			Name:        "Borboleta Social",
			Description: "Siga 25 usuários e seja seguido por 25",
			Category:    models.CategorySocial,
			Rarity:      models.RarityRare,
			BadgeIcon:   "🦋",
			BadgeColor:  "#EC4899",
			Criteria: models.Criteria{
				Kind:        models.CriteriaSpecial,
				TargetValue: 25,
				AdditionalConditions: map[string]int64{
					"followers": 25,
					"following": 25,
				},
			},
			PointsReward: 30,
			PConReward:   15,
			SortOrder:    40,
		},
		// Streak
		{
			ID:          "week_warrior",
			Name:        "Guerreiro da Semana",
			Description: "Mantenha uma sequência de 7 dias consecutivos",
			Category:    models.CategoryStreak,
			Rarity:      models.RarityRare,
			BadgeIcon:   "🔥",
			BadgeColor:  "#F97316",
			Criteria: models.Criteria{
				Kind:        models.CriteriaStreak,
				TargetValue: 7,
				TargetField: models.StreakDailyLogin,
			},
			PointsReward: 25,
			PConReward:   15,
			SortOrder:    50,
		},
		{
			ID:          "month_master",
			Name:        "Mestre do Mês",
			Description: "Mantenha uma sequência de 30 dias consecutivos",
			Category:    models.CategoryStreak,
			Rarity:      models.RarityLegendary,
			BadgeIcon:   "🌟",
			BadgeColor:  "#A855F7",
			Criteria: models.Criteria{
				Kind:        models.CriteriaStreak,
				TargetValue: 30,
				TargetField: models.StreakDailyLogin,
			},
			PointsReward: 150,
			PConReward:   75,
			SortOrder:    60,
		},
		{
			ID:          "streak_legend",
			Name:        "Lenda da Sequência",
			Description: "Mantenha uma sequência de 100 dias consecutivos",
			Category:    models.CategoryStreak,
			Rarity:      models.RarityLegendary,
			BadgeIcon:   "⚡",
			BadgeColor:  "#FBBF24",
			Criteria: models.Criteria{
				Kind:        models.CriteriaStreak,
				TargetValue: 100,
				TargetField: models.StreakDailyLogin,
			},
			PointsReward: 300,
			PConReward:   150,
			SortOrder:    65,
		},
		// Milestone
		{
			ID:          "veteran_member",
			Name:        "Membro Veterano",
			Description: "Complete 1 ano como membro ativo",
			Category:    models.CategoryMilestone,
			Rarity:      models.RarityEpic,
			BadgeIcon:   "🎖️",
			BadgeColor:  "#059669",
			Criteria: models.Criteria{
				Kind:        models.CriteriaSpecial,
				TargetValue: 365,
				TargetField: models.SpecialDaysSinceRegistration,
			},
			PointsReward: 100,
			PConReward:   50,
			SortOrder:    70,
		},
		// Competitive
		{
			ID:          "top_contributor",
			Name:        "Top Contribuidor",
			Description: "Chegue ao Top 10 no leaderboard mensal",
			Category:    models.CategoryCompetitive,
			Rarity:      models.RarityEpic,
			BadgeIcon:   "👑",
			BadgeColor:  "#DC2626",
			Criteria: models.Criteria{
				Kind:        models.CriteriaSpecial,
				TargetValue: 10,
				TargetField: models.SpecialLeaderboardPosition,
			},
			PointsReward: 75,
			PConReward:   40,
			SortOrder:    80,
		},
	}
}
