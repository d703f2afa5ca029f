// Package templates holds the dashboard page. The page is a hand-written
// templ component: all dynamic content arrives through the datastar SSE
// endpoints, so the page itself is static HTML with datastar bindings.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

func Dashboard() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, dashboardPage)
		return err
	})
}

const refreshExpr = `@get('/sse/dashboard?start=' + $start + '&end=' + $end + '&cities=' + $cities + '&product_lines=' + $productLines + '&genders=' + $genders)`

const dashboardPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8"/>
<meta name="viewport" content="width=device-width, initial-scale=1"/>
<title>Supermarket Sales Dashboard</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"></script>
<style>
body{font-family:system-ui,sans-serif;margin:0;background:#f6f7f9;color:#1d2733}
header{background:#1f77b4;color:#fff;padding:1rem 2rem}
main{display:grid;grid-template-columns:260px 1fr;gap:1.5rem;padding:1.5rem 2rem}
aside{background:#fff;border-radius:8px;padding:1rem}
section.panels{display:flex;flex-direction:column;gap:1.5rem}
.panel{background:#fff;border-radius:8px;padding:1rem}
.kpi-grid{display:flex;gap:2rem}
.kpi{display:flex;flex-direction:column}
.kpi-label{color:#6b7684;font-size:.85rem}
.modern-table{width:100%;border-collapse:collapse}
.modern-table th,.modern-table td{padding:.4rem .6rem;border-bottom:1px solid #e3e7eb;text-align:left;font-size:.9rem}
.insights{list-style:none;padding:0}
.insights li{padding:.3rem 0}
.note,.warning{color:#8a6d1a}
.success{color:#1a7a3a}
label{display:block;margin:.6rem 0 .2rem;font-size:.85rem;color:#6b7684}
input{width:100%;box-sizing:border-box;padding:.35rem;border:1px solid #cfd6dd;border-radius:4px}
button{margin-top:1rem;width:100%;padding:.5rem;background:#1f77b4;color:#fff;border:0;border-radius:4px;cursor:pointer}
</style>
</head>
<body data-signals="{start:'',end:'',cities:'',productLines:'',genders:'',searchCity:'',searchProduct:'',productSales:[],citySales:[],genderSales:[],customerTypeSales:[],paymentCounts:[],monthlyTrend:[],correlation:{}}"
      data-on-load="@get('/sse/dashboard')">
<header><h1>Supermarket Sales Dashboard</h1></header>
<main>
<aside>
<h2>Filters</h2>
<label for="start">Start date</label>
<input id="start" type="date" data-bind-start/>
<label for="end">End date</label>
<input id="end" type="date" data-bind-end/>
<label for="cities">Cities (comma separated)</label>
<input id="cities" type="text" data-bind-cities placeholder="Yangon,Mandalay"/>
<label for="product-lines">Product lines</label>
<input id="product-lines" type="text" data-bind-product-lines placeholder="Health and beauty"/>
<label for="genders">Genders</label>
<input id="genders" type="text" data-bind-genders placeholder="Male,Female"/>
<button data-on-click="` + refreshExpr + `">Apply filters</button>

<h2>Search</h2>
<label for="search-city">City</label>
<input id="search-city" type="text" data-bind-search-city placeholder="Yangon"/>
<button data-on-click="@get('/sse/search?city=' + $searchCity)">Search city</button>
<label for="search-product">Product line</label>
<input id="search-product" type="text" data-bind-search-product placeholder="Health and beauty"/>
<button data-on-click="@get('/sse/search?product_line=' + $searchProduct)">Search product</button>

<h2>Export</h2>
<button data-on-click="window.open('/api/export?start=' + $start + '&end=' + $end + '&cities=' + $cities + '&product_lines=' + $productLines + '&genders=' + $genders)">Download CSV</button>
</aside>

<section class="panels">
<div class="panel"><h2>Key figures</h2><div id="kpi-content"><p class="note">Loading…</p></div></div>
<div class="panel"><h2>Preview of filtered data</h2><div id="preview-content"></div></div>
<div class="panel"><h2>Product line sales</h2><div id="product-chart" data-text="JSON.stringify($productSales)"></div></div>
<div class="panel"><h2>Sales by city</h2><div id="city-chart" data-text="JSON.stringify($citySales)"></div></div>
<div class="panel"><h2>Sales by gender</h2><div id="gender-chart" data-text="JSON.stringify($genderSales)"></div></div>
<div class="panel"><h2>Customer type</h2><div id="customer-type-chart" data-text="JSON.stringify($customerTypeSales)"></div></div>
<div class="panel"><h2>Payment methods</h2><div id="payment-chart" data-text="JSON.stringify($paymentCounts)"></div></div>
<div class="panel"><h2>Monthly sales trend</h2><div id="monthly-chart" data-text="JSON.stringify($monthlyTrend)"></div></div>
<div class="panel"><h2>Correlation heatmap</h2><div id="correlation-chart" data-text="JSON.stringify($correlation)"></div></div>
<div class="panel"><h2>Quick insights</h2><div id="insights-content"></div></div>
<div class="panel"><h2>Search result</h2><div id="search-content"></div></div>
</section>
</main>
</body>
</html>`
