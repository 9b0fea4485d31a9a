package database

import (
	"github.com/acodelab/backend/acodelab/database/models"
)

// BadgeCatalog returns the predefined badge catalog. Rank badges are
// granted automatically when the rank evaluator promotes a user; the
// remaining ones are granted by specific engine paths (streaks,
// milestones) or by an administrator.
func BadgeCatalog() []models.Badge {
	return []models.Badge{
		// One badge per rank tier above the entry tier.
		{
			ID:          "rank_colaborador",
			Name:        "Colaborador",
			Description: "Alcançou o rank Colaborador",
			BadgeType:   models.BadgeTypeRank,
			Icon:        "🥉",
			Color:       "#CD7F32",
			SortOrder:   1,
		},
		{
			ID:          "rank_especialista",
			Name:        "Especialista",
			Description: "Alcançou o rank Especialista",
			BadgeType:   models.BadgeTypeRank,
			Icon:        "🥈",
			Color:       "#C0C0C0",
			SortOrder:   2,
		},
		{
			ID:          "rank_veterano",
			Name:        "Veterano",
			Description: "Alcançou o rank Veterano",
			BadgeType:   models.BadgeTypeRank,
			Icon:        "🥇",
			Color:       "#FFD700",
			SortOrder:   3,
		},
		{
			ID:          "rank_mestre",
			Name:        "Mestre",
			Description: "Alcançou o rank Mestre",
			BadgeType:   models.BadgeTypeRank,
			Icon:        "💎",
			Color:       "#B9F2FF",
			IsRare:      true,
			SortOrder:   4,
		},
		{
			ID:          "rank_lenda",
			Name:        "Lenda",
			Description: "Alcançou o rank Lenda",
			BadgeType:   models.BadgeTypeRank,
			Icon:        "🌠",
			Color:       "#FF4500",
			IsRare:      true,
			SortOrder:   5,
		},
		{
			ID:          "week_warrior",
			Name:        "Guerreiro da Semana",
			Description: "Sete dias consecutivos de atividade",
			BadgeType:   models.BadgeTypeMilestone,
			Icon:        "🔥",
			Color:       "#F97316",
			SortOrder:   10,
		},
		{
			ID:          "month_master",
			Name:        "Mestre do Mês",
			Description: "Trinta dias consecutivos de atividade",
			BadgeType:   models.BadgeTypeMilestone,
			Icon:        "🌟",
			Color:       "#A855F7",
			IsRare:      true,
			SortOrder:   11,
		},
		{
			ID:          "early_adopter",
			Name:        "Adotante Inicial",
			Description: "Entrou na comunidade durante o primeiro ano",
			BadgeType:   models.BadgeTypeSpecial,
			Icon:        "🚀",
			Color:       "#6366F1",
			IsRare:      true,
			SortOrder:   20,
		},
		{
			ID:          "question_master",
			Name:        "Mestre das Perguntas",
			Description: "Reconhecido pela qualidade de suas perguntas",
			BadgeType:   models.BadgeTypeSpecial,
			Icon:        "❓",
			Color:       "#10B981",
			SortOrder:   21,
		},
		{
			ID:          "answer_guru",
			Name:        "Guru das Respostas",
			Description: "Reconhecido pela qualidade de suas respostas",
			BadgeType:   models.BadgeTypeSpecial,
			Icon:        "🧙",
			Color:       "#F59E0B",
			SortOrder:   22,
		},
	}
}
