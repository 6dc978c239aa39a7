// Package entity 定义领域实体
package entity

import "strings"

// Sector 工业领域标签，用于对话与遥测的聚合统计
type Sector string

// 固定的 14 个工业领域
const (
	SectorAutomotivo       Sector = "Automotivo"
	SectorAlimentosBebidas Sector = "Alimentos e Bebidas"
	SectorAgronegocio      Sector = "Agronegócio"
	SectorConstrucaoCivil  Sector = "Construção Civil"
	SectorEletroeletronico Sector = "Eletroeletrônico"
	SectorEnergia          Sector = "Energia"
	SectorFarmaceutico     Sector = "Farmacêutico"
	SectorLogistica        Sector = "Logística e Transporte"
	SectorMetalurgia       Sector = "Metalurgia e Siderurgia"
	SectorMineracao        Sector = "Mineração"
	SectorPapelCelulose    Sector = "Papel e Celulose"
	SectorQuimico          Sector = "Químico e Petroquímico"
	SectorTextil           Sector = "Têxtil e Confecção"
	SectorTecnologia       Sector = "Tecnologia da Informação"
)

// KnownSectors 返回全部已知领域
func KnownSectors() []Sector {
	return []Sector{
		SectorAutomotivo,
		SectorAlimentosBebidas,
		SectorAgronegocio,
		SectorConstrucaoCivil,
		SectorEletroeletronico,
		SectorEnergia,
		SectorFarmaceutico,
		SectorLogistica,
		SectorMetalurgia,
		SectorMineracao,
		SectorPapelCelulose,
		SectorQuimico,
		SectorTextil,
		SectorTecnologia,
	}
}

// IsKnownSector 判断字符串是否属于已知领域（大小写不敏感）
func IsKnownSector(s string) bool {
	_, ok := lookupSector(s)
	return ok
}

// NormalizeSector 将输入归一化到已知领域的规范写法。
// 未知领域原样保留（仅去除首尾空白）：枚举漂移由写入侧打标记，不在此处丢弃。
func NormalizeSector(s string) string {
	if sector, ok := lookupSector(s); ok {
		return string(sector)
	}
	return strings.TrimSpace(s)
}

func lookupSector(s string) (Sector, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", false
	}
	for _, sector := range KnownSectors() {
		if strings.EqualFold(string(sector), trimmed) {
			return sector, true
		}
	}
	return "", false
}
