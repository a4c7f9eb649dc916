package classifier

import "github.com/datachat-ai/datachat/internal/agent"

// Exemplar phrases per intent, embedded once at startup into centroid
// vectors. Portuguese and English are both covered since the original user
// base mixes the two.
var exemplars = map[agent.Intent][]string{
	agent.IntentDescriptiveSummary: {
		"faça um resumo descritivo dos dados",
		"quais são os tipos de dados das colunas",
		"describe the dataset and its columns",
		"give me a summary of the data",
	},
	agent.IntentCentralTendency: {
		"qual é a média da coluna",
		"calcule a mediana e a moda",
		"what is the mean of the values",
		"show the median and mode per column",
	},
	agent.IntentVariability: {
		"qual é o desvio padrão dos dados",
		"calcule a variância das colunas",
		"what is the standard deviation",
		"how spread out are the values",
	},
	agent.IntentInterval: {
		"qual é o intervalo dos valores",
		"mostre o mínimo e o máximo",
		"what is the range of the column",
		"show minimum and maximum values",
	},
	agent.IntentDistribution: {
		"os dados seguem uma distribuição normal",
		"qual é a assimetria da distribuição",
		"is the data normally distributed",
		"show the skewness and kurtosis",
	},
	agent.IntentCorrelation: {
		"qual é a correlação entre as colunas",
		"existe relação entre as variáveis",
		"show the correlation matrix",
		"which columns are correlated",
	},
	agent.IntentOutliers: {
		"existem valores atípicos nos dados",
		"detecte outliers nas colunas",
		"are there outliers in the data",
		"find anomalous values",
	},
	agent.IntentVisualization: {
		"gere um histograma das colunas",
		"crie gráficos dos dados",
		"plot a histogram of the values",
		"generate charts for the dataset",
	},
	agent.IntentClustering: {
		"agrupe os dados em clusters",
		"faça uma análise de agrupamento",
		"cluster the rows into groups",
		"run k-means on the data",
	},
	agent.IntentSearch: {
		"encontre as linhas onde o valor é maior que",
		"busque registros com classe um",
		"find the rows matching this condition",
		"search for records with high amounts",
	},
	agent.IntentCount: {
		"quantas linhas tem o conjunto de dados",
		"conte os registros por classe",
		"how many rows are there",
		"count the records in the dataset",
	},
	agent.IntentDataLoading: {
		"carregue o arquivo csv",
		"importe um novo conjunto de dados",
		"load this csv file",
		"ingest a new dataset",
	},
	agent.IntentConversational: {
		"olá, tudo bem",
		"obrigado pela ajuda",
		"hello, how are you",
		"thanks, that was helpful",
	},
}

// Keyword table for the lexical fallback. Scoring counts token hits in the
// lower-cased query.
var keywords = map[agent.Intent][]string{
	agent.IntentDescriptiveSummary: {"resumo", "descreva", "descrever", "tipos", "describe", "summary", "overview"},
	agent.IntentCentralTendency:    {"média", "media", "mediana", "moda", "mean", "average", "median", "mode"},
	agent.IntentVariability:        {"desvio", "variância", "variancia", "variação", "deviation", "variance", "spread"},
	agent.IntentInterval:           {"intervalo", "mínimo", "minimo", "máximo", "maximo", "amplitude", "range", "minimum", "maximum", "min", "max"},
	agent.IntentDistribution:       {"distribuição", "distribuicao", "normal", "normalidade", "assimetria", "curtose", "distribution", "normality", "skewness", "kurtosis"},
	agent.IntentCorrelation:        {"correlação", "correlacao", "relação", "relacao", "correlation", "correlated", "relationship"},
	agent.IntentOutliers:           {"outlier", "outliers", "atípico", "atipico", "atípicos", "atipicos", "anomalia", "anomalias", "anomaly", "anomalous"},
	agent.IntentVisualization:      {"histograma", "gráfico", "grafico", "gráficos", "graficos", "visualização", "visualizacao", "histogram", "chart", "charts", "plot", "visualize"},
	agent.IntentClustering:         {"cluster", "clusters", "agrupamento", "agrupar", "agrupe", "k-means", "kmeans", "clustering"},
	agent.IntentSearch:             {"encontre", "busque", "procure", "filtre", "find", "search", "filter", "where"},
	agent.IntentCount:              {"quantas", "quantos", "conte", "contagem", "count", "many"},
	agent.IntentDataLoading:        {"carregue", "carregar", "importe", "importar", "load", "import", "ingest"},
	agent.IntentConversational:     {"olá", "ola", "oi", "obrigado", "obrigada", "hello", "hi", "thanks", "thank"},
}

// lexicalPriority breaks keyword-score ties: statistical intents first so
// canonical statistical queries never fall through to the generic path.
var lexicalPriority = []agent.Intent{
	agent.IntentInterval,
	agent.IntentCentralTendency,
	agent.IntentVariability,
	agent.IntentDistribution,
	agent.IntentCorrelation,
	agent.IntentOutliers,
	agent.IntentClustering,
	agent.IntentVisualization,
	agent.IntentCount,
	agent.IntentSearch,
	agent.IntentDataLoading,
	agent.IntentDescriptiveSummary,
	agent.IntentConversational,
}

// overrideTerms are literal tokens that force a statistical intent no matter
// what the semantic model says. Keeps canonical statistical queries from
// being misrouted.
var overrideTerms = map[string]agent.Intent{
	"intervalo": agent.IntentInterval,
	"mínimo":    agent.IntentInterval,
	"minimo":    agent.IntentInterval,
	"máximo":    agent.IntentInterval,
	"maximo":    agent.IntentInterval,
	"amplitude": agent.IntentInterval,
	"range":     agent.IntentInterval,
	"minimum":   agent.IntentInterval,
	"maximum":   agent.IntentInterval,

	"média":   agent.IntentCentralTendency,
	"media":   agent.IntentCentralTendency,
	"mediana": agent.IntentCentralTendency,
	"moda":    agent.IntentCentralTendency,

	"variância": agent.IntentVariability,
	"variancia": agent.IntentVariability,

	"correlação": agent.IntentCorrelation,
	"correlacao": agent.IntentCorrelation,

	"outlier":  agent.IntentOutliers,
	"outliers": agent.IntentOutliers,

	"histograma": agent.IntentVisualization,

	"cluster":     agent.IntentClustering,
	"clusters":    agent.IntentClustering,
	"agrupamento": agent.IntentClustering,
}
